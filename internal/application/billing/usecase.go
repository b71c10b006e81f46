// Package billing casos de uso de facturación por período: líneas, ajustes manuales,
// almacenaje de contenedores y expediciones de palés.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/billing"
	"github.com/jhoicas/consumibles-api/internal/domain/closing"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/metrics"
	"github.com/jhoicas/consumibles-api/pkg/logger"
)

// Rates tarifas de facturación.
type Rates struct {
	StorageGraceDays int
	StorageDailyRate decimal.Decimal
	PalletUnitPrice  decimal.Decimal
}

// UseCase facturación de un período.
type UseCase struct {
	tx      repository.TxRunner
	rates   Rates
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx repository.TxRunner, rates Rates, log *logger.Logger, m *metrics.Metrics) *UseCase {
	return &UseCase{
		tx:      tx,
		rates:   rates,
		log:     logger.OrNop(log).Named("billing"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sustituye el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func parsePeriod(s string) (period.ID, error) {
	p, err := period.Parse(s)
	if err != nil {
		return "", domain.Invalid("period", err.Error())
	}
	return p, nil
}

// BillingLines líneas facturables y totales del período, calculados sobre una vista consistente.
func (uc *UseCase) BillingLines(ctx context.Context, periodID string) (*dto.BillingReportDTO, error) {
	p, err := parsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	var rep *dto.BillingReportDTO
	err = uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		lines, totals, err := uc.build(ctx, tx, p)
		if err != nil {
			return err
		}
		c, err := tx.Closings().Get(ctx, p.String())
		if err != nil {
			return err
		}
		version, err := tx.Movements().Version(ctx)
		if err != nil {
			return err
		}
		rep = &dto.BillingReportDTO{
			Period:   p.String(),
			Status:   closing.StatusOf(c),
			Lines:    toLineDTOs(lines),
			Totals:   dto.BillingTotalsDTO(totals),
			Snapshot: dto.SnapshotDTO{Version: version, TakenAt: uc.now()},
		}
		return nil
	})
	return rep, err
}

// build calcula las líneas del período dentro de tx.
func (uc *UseCase) build(ctx context.Context, tx repository.Tx, p period.ID) ([]billing.Line, billing.Totals, error) {
	start, end := p.Bounds()
	movs, err := tx.Movements().List(ctx, repository.MovementFilter{Period: p.String(), Kind: entity.MovementOutbound})
	if err != nil {
		return nil, billing.Totals{}, err
	}
	entries, err := tx.Storage().ListOverlapping(ctx, start, end)
	if err != nil {
		return nil, billing.Totals{}, err
	}
	exps, err := tx.Pallets().ListByPeriod(ctx, p.String())
	if err != nil {
		return nil, billing.Totals{}, err
	}
	ovs, err := tx.Overrides().ListByPeriod(ctx, p.String())
	if err != nil {
		return nil, billing.Totals{}, err
	}
	articles, err := tx.Articles().List(ctx, false)
	if err != nil {
		return nil, billing.Totals{}, err
	}

	b := billing.Builder{
		Period:           p,
		Catalog:          entity.NewCatalog(articles),
		Overrides:        make(map[string]decimal.Decimal, len(ovs)),
		StorageDailyRate: uc.rates.StorageDailyRate,
		PalletUnitPrice:  uc.rates.PalletUnitPrice,
	}
	for _, o := range ovs {
		b.Overrides[o.LineKey] = o.Quantity
	}
	lines, totals := b.Build(movs, entries, exps)
	return lines, totals, nil
}

// SetOverride fija la cantidad facturada de una línea; quantity nil elimina el ajuste.
// Se serializa por período y falla si el período está cerrado o la línea no existe.
func (uc *UseCase) SetOverride(ctx context.Context, periodID, lineKey string, quantity *decimal.Decimal, actor entity.Actor) (*dto.BillingReportDTO, error) {
	p, err := parsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateKey(lineKey); err != nil {
		return nil, domain.Invalid("line_key", err.Error())
	}
	if quantity != nil && quantity.IsNegative() {
		return nil, domain.Invalid("quantity", "no puede ser negativa")
	}

	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := lockOpenPeriod(ctx, tx, p); err != nil {
			return err
		}
		lines, _, err := uc.build(ctx, tx, p)
		if err != nil {
			return err
		}
		if !hasLine(lines, lineKey) {
			return domain.NotFound("line", lineKey)
		}
		if quantity == nil {
			return tx.Overrides().Delete(ctx, p.String(), lineKey)
		}
		return tx.Overrides().Upsert(ctx, &entity.BillingOverride{
			Period:   p.String(),
			LineKey:  lineKey,
			Quantity: *quantity,
			SetBy:    actor.Label(),
			SetAt:    uc.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	op := "set"
	ev := uc.log.Info().Str("period", p.String()).Str("line_key", lineKey).Str("actor", actor.Label())
	if quantity == nil {
		op = "clear"
	} else {
		ev = ev.Str("quantity", quantity.String())
	}
	uc.metrics.Override(op)
	ev.Msg("ajuste de facturación " + op)
	return uc.BillingLines(ctx, p.String())
}

func hasLine(lines []billing.Line, key string) bool {
	for _, l := range lines {
		if l.Key == key {
			return true
		}
	}
	return false
}

// lockOpenPeriod bloquea el período y falla si está cerrado.
func lockOpenPeriod(ctx context.Context, tx repository.Tx, p period.ID) error {
	if err := tx.Lock(ctx, repository.PeriodLock(p.String())); err != nil {
		return err
	}
	c, err := tx.Closings().Get(ctx, p.String())
	if err != nil {
		return err
	}
	return closing.EnsureOpen(c, p.String())
}

func toLineDTOs(lines []billing.Line) []dto.BillingLineDTO {
	out := make([]dto.BillingLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.BillingLineDTO{
			Key:            l.Key,
			Source:         l.Source,
			LoadRef:        l.LoadRef,
			SKU:            l.SKU,
			Description:    l.Description,
			Date:           l.Date,
			RealQuantity:   l.RealQuantity,
			BilledQuantity: l.BilledQuantity,
			UnitPrice:      l.UnitPrice,
			Amount:         l.Amount,
			IsModified:     l.IsModified,
		})
	}
	return out
}
