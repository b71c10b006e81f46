// Package sync reconcilia las cargas operativas de la hoja externa con el libro de consumos.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/closing"
	"github.com/jhoicas/consumibles-api/internal/domain/detection"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/ledger"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/metrics"
	"github.com/jhoicas/consumibles-api/pkg/logger"
)

// SyncActor autor de los movimientos generados por la sincronización.
const SyncActor = "sync"

// maxConflictRetries reintentos de una carga ante conflicto de concurrencia.
const maxConflictRetries = 3

// UseCase reconciliador de cargas. Cada carga se procesa en su propia transacción.
type UseCase struct {
	tx      repository.TxRunner
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewUseCase construye el reconciliador. log y m pueden ser nil.
func NewUseCase(tx repository.TxRunner, log *logger.Logger, m *metrics.Metrics) *UseCase {
	return &UseCase{
		tx:      tx,
		log:     logger.OrNop(log).Named("sync"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sustituye el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Reconcile aplica un lote de cargas. Un registro inválido o una carga en período cerrado
// solo falla ese registro; el resto del lote continúa.
func (uc *UseCase) Reconcile(ctx context.Context, batch []dto.LoadInput) dto.ReconcileResult {
	start := time.Now()
	res := dto.ReconcileResult{Outcomes: make([]dto.LoadOutcome, 0, len(batch))}

	for _, in := range batch {
		out := uc.reconcileWithRetry(ctx, in)
		switch out.Status {
		case dto.OutcomeCreated:
			res.Created++
		case dto.OutcomeUpdated:
			res.Updated++
		case dto.OutcomeUnchanged:
			res.Unchanged++
		default:
			res.Failed++
			uc.log.Warn().Str("ref", out.Ref).Str("code", out.Code).Msg(out.Error)
		}
		uc.metrics.Load(out.Status)
		if out.Status == dto.OutcomeCreated || out.Status == dto.OutcomeUpdated {
			uc.metrics.Movements("load", out.Movements)
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	uc.metrics.Batch(time.Since(start).Seconds())
	uc.log.Info().
		Int("loads", len(batch)).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("failed", res.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("lote de cargas reconciliado")
	return res
}

func (uc *UseCase) reconcileWithRetry(ctx context.Context, in dto.LoadInput) dto.LoadOutcome {
	load, err := parseLoad(in)
	if err != nil {
		return failed(strings.TrimSpace(in.Ref), err)
	}
	var out dto.LoadOutcome
	for attempt := 1; ; attempt++ {
		out, err = uc.reconcileOne(ctx, load)
		if err == nil {
			return out
		}
		if !errors.Is(err, domain.ErrReconciliationConflict) || attempt >= maxConflictRetries || ctx.Err() != nil {
			return failed(load.Ref, err)
		}
	}
}

func failed(ref string, err error) dto.LoadOutcome {
	return dto.LoadOutcome{Ref: ref, Status: dto.OutcomeFailed, Code: domain.Code(err), Error: err.Error()}
}

// parseLoad valida y normaliza un registro de la hoja externa.
func parseLoad(in dto.LoadInput) (*entity.OperationalLoad, error) {
	ref := strings.TrimSpace(in.Ref)
	if ref == "" {
		return nil, domain.Invalid("ref", "obligatorio")
	}
	date, err := period.ParseDate(in.Date)
	if err != nil {
		return nil, domain.Invalid("date", err.Error())
	}
	lines := make(map[string]decimal.Decimal, len(in.Consumptions))
	for sku, raw := range in.Consumptions {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			return nil, domain.Invalid("consumptions", "sku vacío")
		}
		q, err := parseQuantity(raw)
		if err != nil {
			return nil, domain.Invalid("consumptions."+sku, err.Error())
		}
		if q.IsNegative() {
			return nil, domain.Invalid("consumptions."+sku, "cantidad negativa")
		}
		lines[sku] = lines[sku].Add(q)
	}
	return &entity.OperationalLoad{
		Ref:          ref,
		Date:         date,
		VehicleID:    strings.TrimSpace(in.VehicleID),
		EquipmentID:  strings.TrimSpace(in.EquipmentID),
		Consumptions: entity.LinesFromMap(lines),
		Period:       period.Of(date).String(),
	}, nil
}

// parseQuantity interpreta una celda de cantidad: número JSON o texto con punto o coma decimal.
// Celda vacía o null equivale a cero.
func parseQuantity(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, fmt.Errorf("cantidad %s ilegible", raw)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, nil
		}
		if !strings.Contains(text, ".") {
			text = strings.ReplaceAll(text, ",", ".")
		}
	}
	q, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cantidad %s no numérica", raw)
	}
	return q, nil
}

func (uc *UseCase) reconcileOne(ctx context.Context, parsed *entity.OperationalLoad) (dto.LoadOutcome, error) {
	// Copia por intento: un reintento no hereda campos de la transacción abortada.
	cp := *parsed
	load := &cp
	out := dto.LoadOutcome{Ref: load.Ref, Period: load.Period}
	err := uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Lock(ctx, repository.LoadLock(load.Ref)); err != nil {
			return err
		}
		existing, err := tx.Loads().Get(ctx, load.Ref)
		if err != nil {
			return err
		}

		now := uc.now()
		load.Fingerprint = ledger.Fingerprint(load)
		load.LastSyncedAt = now
		periods := []string{load.Period}
		if existing == nil {
			out.Status = dto.OutcomeCreated
			load.FirstFingerprint = load.Fingerprint
			load.FirstSyncedAt = now
		} else {
			out.Status = dto.OutcomeUpdated
			load.FirstFingerprint = existing.FirstFingerprint
			load.FirstSyncedAt = existing.FirstSyncedAt
			load.ADRBreakdown = existing.ADRBreakdown
			load.BreakdownBy = existing.BreakdownBy
			load.BreakdownAt = existing.BreakdownAt
			if existing.Period != load.Period {
				periods = append(periods, existing.Period)
			}
		}

		if err := lockOpenPeriods(ctx, tx, periods...); err != nil {
			if existing != nil && existing.Fingerprint == load.Fingerprint && errors.Is(err, domain.ErrClosedPeriod) {
				out.Status = dto.OutcomeUnchanged
				return nil
			}
			return err
		}
		cat, err := catalogFor(ctx, tx, load)
		if err != nil {
			return err
		}
		movs := ledger.Derive(load, cat, now)

		// Misma carga: solo se re-deriva si el catálogo cambió la derivación (p. ej. un SKU recategorizado).
		if existing != nil && existing.Fingerprint == load.Fingerprint && existing.Period == load.Period {
			current, err := tx.Movements().List(ctx, repository.MovementFilter{LoadRef: load.Ref})
			if err != nil {
				return err
			}
			if ledger.SameOutbound(current, movs) {
				out.Status = dto.OutcomeUnchanged
				existing.LastSyncedAt = now
				return tx.Loads().Upsert(ctx, existing)
			}
		}
		for _, m := range movs {
			m.CreatedBy = SyncActor
		}
		if err := tx.Loads().Upsert(ctx, load); err != nil {
			return err
		}
		if err := tx.Movements().ReplaceForLoad(ctx, load.Ref, movs); err != nil {
			return err
		}
		out.Movements = len(movs)
		return nil
	})
	if err != nil {
		return dto.LoadOutcome{}, err
	}
	return out, nil
}

// lockOpenPeriods bloquea los períodos y falla si alguno está cerrado.
func lockOpenPeriods(ctx context.Context, tx repository.Tx, periods ...string) error {
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, repository.PeriodLock(p))
	}
	if err := tx.Lock(ctx, keys...); err != nil {
		return err
	}
	for _, p := range periods {
		c, err := tx.Closings().Get(ctx, p)
		if err != nil {
			return err
		}
		if err := closing.EnsureOpen(c, p); err != nil {
			return err
		}
	}
	return nil
}

// catalogFor artículos referenciados por la carga y su desglose.
func catalogFor(ctx context.Context, tx repository.Tx, load *entity.OperationalLoad) (entity.Catalog, error) {
	cat := entity.Catalog{}
	lines := append(append([]entity.ConsumptionLine{}, load.Consumptions...), load.ADRBreakdown...)
	for _, l := range lines {
		if _, ok := cat[l.SKU]; ok {
			continue
		}
		a, err := tx.Articles().GetBySKU(ctx, l.SKU)
		if err != nil {
			return nil, fmt.Errorf("artículo %s: %w", l.SKU, err)
		}
		cat[l.SKU] = a
	}
	return cat, nil
}

// SetADRBreakdown fija (o elimina, con lista vacía) el desglose ADR de una carga y regenera
// sus movimientos. Es la única escritura del desglose.
func (uc *UseCase) SetADRBreakdown(ctx context.Context, ref string, lines []dto.ConsumptionLineDTO, actor entity.Actor) (*dto.LoadResponse, error) {
	ref = strings.TrimSpace(ref)
	merged := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		sku := strings.TrimSpace(l.SKU)
		if sku == "" {
			return nil, domain.Invalid("sku", "obligatorio")
		}
		if l.Quantity.IsNegative() {
			return nil, domain.Invalid("quantity", "no puede ser negativa")
		}
		if l.Quantity.IsZero() {
			continue
		}
		merged[sku] = merged[sku].Add(l.Quantity)
	}
	breakdown := entity.LinesFromMap(merged)
	for i := range breakdown {
		breakdown[i].Kind = ""
	}

	var written int
	err := uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Lock(ctx, repository.LoadLock(ref)); err != nil {
			return err
		}
		load, err := tx.Loads().Get(ctx, ref)
		if err != nil {
			return err
		}
		if load == nil {
			return domain.NotFound("load", ref)
		}
		// El período se recalcula desde la fecha; el guardado, si difiere, también debe estar abierto.
		periods := []string{period.Of(load.Date).String()}
		if load.Period != periods[0] {
			periods = append(periods, load.Period)
		}
		if err := lockOpenPeriods(ctx, tx, periods...); err != nil {
			return err
		}
		load.Period = periods[0]

		load.ADRBreakdown = breakdown
		cat, err := catalogFor(ctx, tx, load)
		if err != nil {
			return err
		}
		for _, b := range breakdown {
			a := cat[b.SKU]
			if a == nil {
				return domain.NotFound("article", b.SKU)
			}
			if a.Category != entity.CategoryADRSpecific {
				return domain.Invalid("sku", fmt.Sprintf("%s no es una pegatina ADR específica", b.SKU))
			}
		}
		if !ledger.HasHazardAggregate(load, cat) {
			return domain.Invalid("ref", "la carga no consume la pegatina ADR genérica")
		}

		now := uc.now()
		if len(breakdown) > 0 {
			load.BreakdownBy = actor.Label()
			load.BreakdownAt = &now
		} else {
			load.ADRBreakdown = nil
			load.BreakdownBy = ""
			load.BreakdownAt = nil
		}
		movs := ledger.Derive(load, cat, now)
		for _, m := range movs {
			m.CreatedBy = actor.Label()
		}
		if err := tx.Loads().Upsert(ctx, load); err != nil {
			return err
		}
		written = len(movs)
		return tx.Movements().ReplaceForLoad(ctx, load.Ref, movs)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.Movements("breakdown", written)
	uc.log.Info().Str("ref", ref).Int("lines", len(breakdown)).Str("actor", actor.Label()).Msg("desglose ADR actualizado")
	return uc.GetLoad(ctx, ref)
}

// ListLoads lista cargas con sus marcas. Las marcas se calculan sobre todo el período
// (o todo el histórico) antes de aplicar los filtros.
func (uc *UseCase) ListLoads(ctx context.Context, f dto.LoadFilter) ([]dto.LoadResponse, error) {
	if f.Period != "" {
		p, err := period.Parse(f.Period)
		if err != nil {
			return nil, domain.Invalid("period", err.Error())
		}
		f.Period = p.String()
	}

	var out []dto.LoadResponse
	err := uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		loads, err := tx.Loads().List(ctx, repository.LoadFilter{Period: f.Period})
		if err != nil {
			return err
		}
		cat, err := fullCatalog(ctx, tx)
		if err != nil {
			return err
		}
		flags := detection.Classify(loads)
		out = make([]dto.LoadResponse, 0, len(loads))
		for _, l := range loads {
			r := toLoadResponse(l, cat, flags[l.Ref])
			switch {
			case f.VehicleID != "" && ledger.NormalizeID(l.VehicleID) != ledger.NormalizeID(f.VehicleID),
				f.OnlyDuplicates && !r.Duplicate,
				f.OnlyModified && !r.Modified,
				f.PendingBreakdown && !r.PendingBreakdown:
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// GetLoad devuelve una carga con sus marcas calculadas sobre su período.
func (uc *UseCase) GetLoad(ctx context.Context, ref string) (*dto.LoadResponse, error) {
	var out *dto.LoadResponse
	err := uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		load, err := tx.Loads().Get(ctx, ref)
		if err != nil {
			return err
		}
		if load == nil {
			return domain.NotFound("load", ref)
		}
		siblings, err := tx.Loads().List(ctx, repository.LoadFilter{Period: load.Period})
		if err != nil {
			return err
		}
		cat, err := fullCatalog(ctx, tx)
		if err != nil {
			return err
		}
		r := toLoadResponse(load, cat, detection.Classify(siblings)[load.Ref])
		out = &r
		return nil
	})
	return out, err
}

func fullCatalog(ctx context.Context, tx repository.Tx) (entity.Catalog, error) {
	articles, err := tx.Articles().List(ctx, false)
	if err != nil {
		return nil, err
	}
	return entity.NewCatalog(articles), nil
}

func toLoadResponse(l *entity.OperationalLoad, cat entity.Catalog, f detection.Flags) dto.LoadResponse {
	return dto.LoadResponse{
		Ref:              l.Ref,
		Date:             l.Date,
		VehicleID:        l.VehicleID,
		EquipmentID:      l.EquipmentID,
		Period:           l.Period,
		Consumptions:     toLineDTOs(ledger.Classify(l, cat)),
		ADRBreakdown:     toLineDTOs(l.ADRBreakdown),
		Duplicate:        f.Duplicate,
		DuplicateOf:      f.DuplicateOf,
		Modified:         f.Modified,
		PendingBreakdown: ledger.PendingBreakdown(l, cat),
		FirstSyncedAt:    l.FirstSyncedAt,
		LastSyncedAt:     l.LastSyncedAt,
		BreakdownBy:      l.BreakdownBy,
		BreakdownAt:      l.BreakdownAt,
	}
}

func toLineDTOs(lines []entity.ConsumptionLine) []dto.ConsumptionLineDTO {
	if len(lines) == 0 {
		return nil
	}
	out := make([]dto.ConsumptionLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.ConsumptionLineDTO{SKU: l.SKU, Quantity: l.Quantity, Kind: l.Kind})
	}
	return out
}
