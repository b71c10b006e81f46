package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/closing"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

// RegisterMovement registra una entrada o un consumo manual (sin carga asociada).
// El período se deriva de la fecha del hecho y debe estar abierto.
func (uc *UseCase) RegisterMovement(ctx context.Context, in dto.RegisterMovementRequest, actor entity.Actor) (*dto.MovementResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return nil, domain.Invalid("sku", "obligatorio")
	}
	kind := strings.ToUpper(strings.TrimSpace(in.Kind))
	if kind != entity.MovementInbound && kind != entity.MovementOutbound {
		return nil, domain.Invalid("kind", "debe ser INBOUND u OUTBOUND")
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
	date, err := period.ParseDate(in.Date)
	if err != nil {
		return nil, domain.Invalid("date", err.Error())
	}
	p := period.Of(date).String()

	now := uc.now()
	m := &entity.Movement{
		ID:         uuid.New().String(),
		SKU:        sku,
		Kind:       kind,
		Quantity:   in.Quantity,
		Reason:     strings.TrimSpace(in.Reason),
		Period:     p,
		Date:       date,
		RecordedAt: now,
		CreatedBy:  actor.Label(),
	}

	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		a, err := tx.Articles().GetBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.NotFound("article", sku)
		}
		if err := tx.Lock(ctx, repository.PeriodLock(p)); err != nil {
			return err
		}
		c, err := tx.Closings().Get(ctx, p)
		if err != nil {
			return err
		}
		if err := closing.EnsureOpen(c, p); err != nil {
			return err
		}
		return tx.Movements().Insert(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.Movements("manual", 1)
	uc.log.Info().Str("sku", sku).Str("kind", kind).Str("quantity", in.Quantity.String()).Str("period", p).Msg("movimiento manual registrado")
	resp := toMovementResponse(m)
	return &resp, nil
}
