// Package inventory casos de uso del libro de consumos: altas manuales, consultas y proyección de stock.
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/inventory"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/metrics"
	"github.com/jhoicas/consumibles-api/pkg/logger"
)

// UseCase operaciones sobre el libro de movimientos.
type UseCase struct {
	tx        repository.TxRunner
	projector inventory.Projector
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewUseCase construye el caso de uso. windowDays es la ventana de la velocidad semanal.
func NewUseCase(tx repository.TxRunner, windowDays int, log *logger.Logger, m *metrics.Metrics) *UseCase {
	return &UseCase{
		tx:        tx,
		projector: inventory.NewProjector(windowDays),
		log:       logger.OrNop(log).Named("inventory"),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sustituye el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// ListMovements consulta el libro con filtros y paginación.
func (uc *UseCase) ListMovements(ctx context.Context, f dto.MovementFilter) (*dto.MovementListResponse, error) {
	f.DefaultPage()
	if f.Period != "" {
		p, err := period.Parse(f.Period)
		if err != nil {
			return nil, domain.Invalid("period", err.Error())
		}
		f.Period = p.String()
	}
	kind := strings.ToUpper(strings.TrimSpace(f.Kind))
	if kind != "" && kind != entity.MovementInbound && kind != entity.MovementOutbound {
		return nil, domain.Invalid("kind", "debe ser INBOUND u OUTBOUND")
	}

	var movs []*entity.Movement
	err := uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		movs, err = tx.Movements().List(ctx, repository.MovementFilter{
			SKU:        strings.TrimSpace(f.SKU),
			Period:     f.Period,
			Kind:       kind,
			LoadRef:    strings.TrimSpace(f.LoadRef),
			ManualOnly: f.ManualOnly,
			Limit:      f.Limit,
			Offset:     f.Offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Returned: len(items)},
	}, nil
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:         m.ID,
		SKU:        m.SKU,
		Kind:       m.Kind,
		Quantity:   m.Quantity,
		Reason:     m.Reason,
		Period:     m.Period,
		LoadRef:    m.LoadRef,
		Date:       m.Date,
		RecordedAt: m.RecordedAt,
		CreatedBy:  m.CreatedBy,
	}
}
