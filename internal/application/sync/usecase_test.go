package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	loadsync "github.com/jhoicas/consumibles-api/internal/application/sync"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/memory"
)

var (
	clock    = time.Date(2026, 1, 28, 8, 0, 0, 0, time.UTC)
	operador = entity.Actor{ID: "u1", Name: "Marta", Role: entity.RoleOperador}
)

func q(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newStore() *memory.Store {
	s := memory.NewStore()
	s.PutArticles(
		&entity.Article{SKU: "TAPE-1", Name: "Cinta", Category: entity.CategoryGeneral, Active: true},
		&entity.Article{SKU: "FILM-1", Name: "Film", Category: entity.CategoryGeneral, Active: true},
		&entity.Article{SKU: "ADR-GEN", Name: "Pegatina ADR", Category: entity.CategoryADRAggregate, Active: true},
		&entity.Article{SKU: "ADR-3", Name: "ADR clase 3", Category: entity.CategoryADRSpecific, Active: true},
	)
	return s
}

func newUC(s *memory.Store) *loadsync.UseCase {
	return loadsync.NewUseCase(s, nil, nil).WithClock(func() time.Time { return clock })
}

func input(ref, date string, lines map[string]int64) dto.LoadInput {
	m := make(map[string]json.RawMessage, len(lines))
	for k, v := range lines {
		m[k] = dto.Cell(q(v))
	}
	return dto.LoadInput{Ref: ref, Date: date, VehicleID: "1234-ABC", EquipmentID: "EQ-1", Consumptions: m}
}

func movementsOf(t *testing.T, s *memory.Store, ref string) []*entity.Movement {
	t.Helper()
	var out []*entity.Movement
	require.NoError(t, s.Snapshot(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Movements().List(ctx, repository.MovementFilter{LoadRef: ref})
		return err
	}))
	return out
}

func bySKU(movs []*entity.Movement) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, m := range movs {
		out[m.SKU] = out[m.SKU].Add(m.Quantity)
	}
	return out
}

func TestReconcile_IdempotenteAnteReenvio(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	batch := []dto.LoadInput{input("C123", "2026-01-20", map[string]int64{"TAPE-1": 8, "FILM-1": 2})}

	res := uc.Reconcile(ctx, batch)
	require.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Outcomes[0].Movements)
	assert.Equal(t, "2026-01", res.Outcomes[0].Period)
	first := movementsOf(t, s, "C123")

	res = uc.Reconcile(ctx, batch)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, first, movementsOf(t, s, "C123"), "el reenvío no duplica ni regenera movimientos")
}

func TestReconcile_ActualizacionSustituyeMovimientos(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)

	uc.Reconcile(ctx, []dto.LoadInput{input("C123", "2026-01-20", map[string]int64{"TAPE-1": 8, "FILM-1": 2})})
	res := uc.Reconcile(ctx, []dto.LoadInput{input("C123", "2026-01-20", map[string]int64{"TAPE-1": 5})})
	require.Equal(t, 1, res.Updated)

	got := bySKU(movementsOf(t, s, "C123"))
	assert.Len(t, got, 1)
	assert.True(t, got["TAPE-1"].Equal(q(5)))

	load, err := uc.GetLoad(ctx, "C123")
	require.NoError(t, err)
	assert.True(t, load.Modified, "la huella difiere de la primera sincronización")
}

func TestReconcile_CambioDePeriodo(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)

	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-25", map[string]int64{"TAPE-1": 1})})
	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-26", map[string]int64{"TAPE-1": 1})})

	movs := movementsOf(t, s, "C1")
	require.Len(t, movs, 1)
	assert.Equal(t, "2026-02", movs[0].Period)
}

func TestReconcile_RegistrosInvalidosNoAbortanElLote(t *testing.T) {
	res := newUC(newStore()).Reconcile(context.Background(), []dto.LoadInput{
		input("", "2026-01-20", map[string]int64{"TAPE-1": 1}),
		input("C2", "ayer", map[string]int64{"TAPE-1": 1}),
		input("C3", "20/01/2026", map[string]int64{"TAPE-1": 1}),
	})
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "VALIDATION", res.Outcomes[0].Code)
	assert.Equal(t, "VALIDATION", res.Outcomes[1].Code)
	assert.Equal(t, dto.OutcomeCreated, res.Outcomes[2].Status)
}

func TestReconcile_CeldaNoNumericaSoloFallaSuCarga(t *testing.T) {
	s := newStore()
	res := newUC(s).Reconcile(context.Background(), []dto.LoadInput{
		{Ref: "OK1", Date: "2026-01-20", Consumptions: map[string]json.RawMessage{"TAPE-1": json.RawMessage(`"3"`)}},
		{Ref: "BAD", Date: "2026-01-20", Consumptions: map[string]json.RawMessage{"TAPE-1": json.RawMessage(`"tres"`)}},
		{Ref: "OK2", Date: "2026-01-20", Consumptions: map[string]json.RawMessage{
			"TAPE-1": json.RawMessage(`2`),
			"FILM-1": json.RawMessage(`"1,5"`),
			"ADR-3":  json.RawMessage(`""`),
		}},
		{Ref: "BOOL", Date: "2026-01-20", Consumptions: map[string]json.RawMessage{"TAPE-1": json.RawMessage(`true`)}},
	})

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, dto.OutcomeFailed, res.Outcomes[1].Status)
	assert.Equal(t, "VALIDATION", res.Outcomes[1].Code)
	assert.Equal(t, "VALIDATION", res.Outcomes[3].Code)

	assert.True(t, bySKU(movementsOf(t, s, "OK1"))["TAPE-1"].Equal(q(3)))
	ok2 := bySKU(movementsOf(t, s, "OK2"))
	assert.True(t, ok2["TAPE-1"].Equal(q(2)))
	assert.True(t, ok2["FILM-1"].Equal(decimal.RequireFromString("1.5")))
	assert.NotContains(t, ok2, "ADR-3", "celda vacía equivale a cero")
	assert.Empty(t, movementsOf(t, s, "BAD"))
}

func TestReconcile_RecategorizacionRederivaCargaIgual(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	in := input("C1", "2026-01-20", map[string]int64{"ADR-GEN": 5})
	uc.Reconcile(ctx, []dto.LoadInput{in})
	_, err := uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "ADR-3", Quantity: q(5)}}, operador)
	require.NoError(t, err)

	res := uc.Reconcile(ctx, []dto.LoadInput{in})
	assert.Equal(t, 1, res.Unchanged, "sin cambios en carga ni catálogo")

	s.PutArticles(&entity.Article{SKU: "ADR-GEN", Name: "Pegatina", Category: entity.CategoryGeneral, Active: true})
	res = uc.Reconcile(ctx, []dto.LoadInput{in})
	assert.Equal(t, 1, res.Updated)

	got := bySKU(movementsOf(t, s, "C1"))
	assert.True(t, got["ADR-GEN"].Equal(q(5)), "ya no es pegatina genérica: no se sustituye")
	assert.NotContains(t, got, "ADR-3")
}

func TestReconcile_MismaCargaConcurrenteDejaUnSoloJuego(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)

	const workers = 8
	var wg gosync.WaitGroup
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": n, "FILM-1": n})})
		}(int64(i))
	}
	wg.Wait()

	load, err := uc.GetLoad(ctx, "C1")
	require.NoError(t, err)
	var want decimal.Decimal
	for _, l := range load.Consumptions {
		if l.SKU == "TAPE-1" {
			want = l.Quantity
		}
	}

	movs := movementsOf(t, s, "C1")
	require.Len(t, movs, 2, "un único juego de movimientos por carga")
	got := bySKU(movs)
	assert.True(t, got["TAPE-1"].Equal(want), "los movimientos corresponden a la última versión guardada")
	assert.True(t, got["FILM-1"].Equal(want))
}

func TestReconcile_PeriodoCerrado(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	original := input("C1", "2026-01-20", map[string]int64{"TAPE-1": 3})
	uc.Reconcile(ctx, []dto.LoadInput{original})

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Closings().Save(ctx, &entity.PeriodClosing{Period: "2026-01", Status: entity.PeriodClosed})
	}))

	res := uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 9}), original})
	assert.Equal(t, dto.OutcomeFailed, res.Outcomes[0].Status)
	assert.Equal(t, "PERIOD_CLOSED", res.Outcomes[0].Code)
	assert.Equal(t, dto.OutcomeUnchanged, res.Outcomes[1].Status, "reenviar una carga cerrada sin cambios no es un error")
	assert.True(t, bySKU(movementsOf(t, s, "C1"))["TAPE-1"].Equal(q(3)))

	res = uc.Reconcile(ctx, []dto.LoadInput{input("C9", "2026-01-02", map[string]int64{"TAPE-1": 1})})
	assert.Equal(t, "PERIOD_CLOSED", res.Outcomes[0].Code, "una carga nueva tampoco entra en un período cerrado")
}

func TestReconcile_FalloDejaLaCargaIntacta(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 3})})

	s.ReplaceHook = func(string) error { return errors.New("disco lleno") }
	res := uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 7})})
	assert.Equal(t, "INTERNAL", res.Outcomes[0].Code)

	s.ReplaceHook = nil
	load, err := uc.GetLoad(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, load.Consumptions[0].Quantity.Equal(q(3)), "la carga no se actualiza si falla la sustitución")
	assert.True(t, bySKU(movementsOf(t, s, "C1"))["TAPE-1"].Equal(q(3)))
}

func TestReconcile_ReintentaConflictos(t *testing.T) {
	s := newStore()
	calls := 0
	s.ReplaceHook = func(string) error {
		calls++
		if calls == 1 {
			return domain.ErrReconciliationConflict
		}
		return nil
	}
	res := newUC(s).Reconcile(context.Background(), []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 1})})
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, calls)
}

func TestSetADRBreakdown_SobreviveALaSincronizacion(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 2, "ADR-GEN": 5})})

	pending, err := uc.GetLoad(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, pending.PendingBreakdown)

	resp, err := uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "ADR-3", Quantity: q(5)}}, operador)
	require.NoError(t, err)
	assert.False(t, resp.PendingBreakdown)
	assert.Equal(t, "Marta", resp.BreakdownBy)

	got := bySKU(movementsOf(t, s, "C1"))
	assert.NotContains(t, got, "ADR-GEN")
	assert.True(t, got["ADR-3"].Equal(q(5)))

	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-20", map[string]int64{"TAPE-1": 4, "ADR-GEN": 5})})
	got = bySKU(movementsOf(t, s, "C1"))
	assert.NotContains(t, got, "ADR-GEN", "el desglose se conserva tras reenviar la carga")
	assert.True(t, got["ADR-3"].Equal(q(5)))
	assert.True(t, got["TAPE-1"].Equal(q(4)))

	_, err = uc.SetADRBreakdown(ctx, "C1", nil, operador)
	require.NoError(t, err)
	got = bySKU(movementsOf(t, s, "C1"))
	assert.True(t, got["ADR-GEN"].Equal(q(5)), "desglose vacío restaura la pegatina genérica")
	assert.NotContains(t, got, "ADR-3")
}

func TestSetADRBreakdown_RecalculaPeriodoDesdeLaFecha(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	uc.Reconcile(ctx, []dto.LoadInput{input("C1", "2026-01-26", map[string]int64{"ADR-GEN": 2})})

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		l, err := tx.Loads().Get(ctx, "C1")
		if err != nil {
			return err
		}
		l.Period = "2026-01"
		return tx.Loads().Upsert(ctx, l)
	}))

	resp, err := uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "ADR-3", Quantity: q(2)}}, operador)
	require.NoError(t, err)
	assert.Equal(t, "2026-02", resp.Period)
	for _, m := range movementsOf(t, s, "C1") {
		assert.Equal(t, "2026-02", m.Period)
	}
}

func TestSetADRBreakdown_Errores(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	uc.Reconcile(ctx, []dto.LoadInput{
		input("C1", "2026-01-20", map[string]int64{"ADR-GEN": 1}),
		input("C2", "2026-01-20", map[string]int64{"TAPE-1": 1}),
	})

	_, err := uc.SetADRBreakdown(ctx, "NOPE", nil, operador)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "XX-9", Quantity: q(1)}}, operador)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "TAPE-1", Quantity: q(1)}}, operador)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SetADRBreakdown(ctx, "C1", []dto.ConsumptionLineDTO{{SKU: "ADR-3", Quantity: q(-1)}}, operador)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SetADRBreakdown(ctx, "C2", []dto.ConsumptionLineDTO{{SKU: "ADR-3", Quantity: q(1)}}, operador)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListLoads_MarcasYFiltros(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	uc := newUC(s)
	dupA := input("C1", "2026-01-20", map[string]int64{"TAPE-1": 1})
	dupB := input("C2", "2026-01-20T10:00:00Z", map[string]int64{"FILM-1": 1})
	dupB.VehicleID = "1234 abc"
	other := input("C3", "2026-01-21", map[string]int64{"TAPE-1": 1})
	uc.Reconcile(ctx, []dto.LoadInput{dupA, dupB, other})

	all, err := uc.ListLoads(ctx, dto.LoadFilter{Period: "2026-01"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dups, err := uc.ListLoads(ctx, dto.LoadFilter{OnlyDuplicates: true})
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, []string{"C2"}, dups[0].DuplicateOf)
	assert.Equal(t, []string{"C1"}, dups[1].DuplicateOf)

	_, err = uc.ListLoads(ctx, dto.LoadFilter{Period: "enero"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
