package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/application/inventory"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	domaininv "github.com/jhoicas/consumibles-api/internal/domain/inventory"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/memory"
)

var (
	today = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	actor = entity.Actor{ID: "u1", Name: "Luis", Role: entity.RoleOperador}
)

func q(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setup() (*memory.Store, *inventory.UseCase) {
	s := memory.NewStore()
	s.PutArticles(
		&entity.Article{SKU: "TAPE-1", Name: "Cinta", Active: true, InitialStock: q(10), SafetyStock: q(5), LeadTimeDays: 7},
		&entity.Article{SKU: "FILM-1", Name: "Film", Active: true, InitialStock: q(100), SafetyStock: q(5)},
		&entity.Article{SKU: "OLD-1", Name: "Descatalogado", Active: false},
	)
	uc := inventory.NewUseCase(s, 30, nil, nil).WithClock(func() time.Time { return today })
	return s, uc
}

func register(t *testing.T, uc *inventory.UseCase, sku, kind string, qty int64, date string) *dto.MovementResponse {
	t.Helper()
	m, err := uc.RegisterMovement(context.Background(), dto.RegisterMovementRequest{
		SKU: sku, Kind: kind, Quantity: q(qty), Date: date, Reason: "regularización",
	}, actor)
	require.NoError(t, err)
	return m
}

func TestRegisterMovement(t *testing.T) {
	_, uc := setup()
	m := register(t, uc, "TAPE-1", "inbound", 4, "2026-01-26")

	assert.Equal(t, entity.MovementInbound, m.Kind)
	assert.Equal(t, "2026-02", m.Period)
	assert.Nil(t, m.LoadRef)
	assert.Equal(t, "Luis", m.CreatedBy)
	assert.NotEmpty(t, m.ID)
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	s, uc := setup()
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.RegisterMovementRequest
		want error
	}{
		{"sku desconocido", dto.RegisterMovementRequest{SKU: "NOPE", Kind: "INBOUND", Quantity: q(1), Date: "2026-02-01"}, domain.ErrNotFound},
		{"cantidad cero", dto.RegisterMovementRequest{SKU: "TAPE-1", Kind: "INBOUND", Quantity: q(0), Date: "2026-02-01"}, domain.ErrInvalidInput},
		{"tipo inválido", dto.RegisterMovementRequest{SKU: "TAPE-1", Kind: "AJUSTE", Quantity: q(1), Date: "2026-02-01"}, domain.ErrInvalidInput},
		{"fecha inválida", dto.RegisterMovementRequest{SKU: "TAPE-1", Kind: "INBOUND", Quantity: q(1), Date: "mañana"}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.RegisterMovement(ctx, tc.in, actor)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Closings().Save(ctx, &entity.PeriodClosing{Period: "2026-01", Status: entity.PeriodClosed})
	}))
	_, err := uc.RegisterMovement(ctx, dto.RegisterMovementRequest{SKU: "TAPE-1", Kind: "OUTBOUND", Quantity: q(1), Date: "2026-01-10"}, actor)
	assert.ErrorIs(t, err, domain.ErrClosedPeriod)
}

func TestListMovements_Filtros(t *testing.T) {
	_, uc := setup()
	register(t, uc, "TAPE-1", "INBOUND", 4, "2026-01-20")
	register(t, uc, "TAPE-1", "OUTBOUND", 1, "2026-01-27")
	register(t, uc, "FILM-1", "OUTBOUND", 2, "2026-01-27")

	res, err := uc.ListMovements(context.Background(), dto.MovementFilter{Period: "2026-02"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	res, err = uc.ListMovements(context.Background(), dto.MovementFilter{SKU: "TAPE-1", Kind: "outbound"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, dto.DefaultLimit, res.Page.Limit)

	_, err = uc.ListMovements(context.Background(), dto.MovementFilter{Period: "2026/02"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProjectInventory(t *testing.T) {
	_, uc := setup()
	register(t, uc, "TAPE-1", "OUTBOUND", 6, "2026-02-01")
	register(t, uc, "TAPE-1", "INBOUND", 50, "2026-02-09")

	proj, err := uc.ProjectInventory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, proj.Items, 2, "solo artículos activos")
	assert.Equal(t, int64(2), proj.Snapshot.Version)

	film := proj.Items[0]
	assert.Equal(t, "FILM-1", film.SKU)
	assert.Equal(t, domaininv.StatusInStock, film.Status)

	tape := proj.Items[1]
	assert.Equal(t, "TAPE-1", tape.SKU)
	assert.True(t, tape.Stock.Equal(q(54)))

	// Al cierre de enero (25/01) no existía ningún movimiento.
	jan, err := uc.ProjectInventory(context.Background(), "2026-01")
	require.NoError(t, err)
	for _, it := range jan.Items {
		if it.SKU == "TAPE-1" {
			assert.True(t, it.Stock.Equal(q(10)))
		}
	}

	// Al cierre de febrero (25/02) la salida está dentro de la ventana.
	feb, err := uc.ProjectInventory(context.Background(), "2026-02")
	require.NoError(t, err)
	for _, it := range feb.Items {
		if it.SKU == "TAPE-1" {
			assert.True(t, it.WeeklyVelocity.Equal(decimal.RequireFromString("1.4")), it.WeeklyVelocity.String())
		}
	}
}

func TestProjectInventory_OrdenPorUrgencia(t *testing.T) {
	_, uc := setup()
	register(t, uc, "TAPE-1", "OUTBOUND", 10, "2026-02-01")

	proj, err := uc.ProjectInventory(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "TAPE-1", proj.Items[0].SKU)
	assert.Equal(t, domaininv.StatusNoStock, proj.Items[0].Status)
	assert.True(t, proj.Items[0].SuggestedReorder.GreaterThan(decimal.Zero))
}
