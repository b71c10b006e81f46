// Package closing casos de uso del ciclo de vida de un período de facturación.
package closing

import (
	"context"
	"strings"
	"time"

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

// UseCase cierre y reapertura de períodos.
type UseCase struct {
	tx      repository.TxRunner
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx repository.TxRunner, log *logger.Logger, m *metrics.Metrics) *UseCase {
	return &UseCase{
		tx:      tx,
		log:     logger.OrNop(log).Named("closing"),
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

// Status estado del período (OPEN si no hay registro) y su disposición para el cierre.
func (uc *UseCase) Status(ctx context.Context, periodID string) (*dto.ClosingStatusDTO, error) {
	p, err := parsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	var out *dto.ClosingStatusDTO
	err = uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, r, err := readiness(ctx, tx, p)
		if err != nil {
			return err
		}
		out = toStatus(p, c, r)
		return nil
	})
	return out, err
}

func readiness(ctx context.Context, tx repository.Tx, p period.ID) (*entity.PeriodClosing, closing.Readiness, error) {
	c, err := tx.Closings().Get(ctx, p.String())
	if err != nil {
		return nil, closing.Readiness{}, err
	}
	loads, err := tx.Loads().List(ctx, repository.LoadFilter{Period: p.String()})
	if err != nil {
		return nil, closing.Readiness{}, err
	}
	articles, err := tx.Articles().List(ctx, false)
	if err != nil {
		return nil, closing.Readiness{}, err
	}
	return c, closing.Assess(loads, entity.NewCatalog(articles)), nil
}

func toStatus(p period.ID, c *entity.PeriodClosing, r closing.Readiness) *dto.ClosingStatusDTO {
	out := &dto.ClosingStatusDTO{
		Period:            p.String(),
		Status:            closing.StatusOf(c),
		Duplicates:        r.Duplicates,
		PendingBreakdowns: r.PendingBreakdowns,
	}
	out.ReadyToClose = out.Status == entity.PeriodOpen && r.Ready()
	if c != nil {
		out.ClosedBy = c.ClosedBy
		out.ClosedAt = c.ClosedAt
		out.ReopenedBy = c.ReopenedBy
		out.ReopenedAt = c.ReopenedAt
	}
	return out
}

// Close OPEN → CLOSED. Congela los días de almacenaje de los contenedores que salieron en el período.
func (uc *UseCase) Close(ctx context.Context, periodID string, actor entity.Actor, skipADR bool) (*dto.ClosingStatusDTO, error) {
	p, err := parsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	var out *dto.ClosingStatusDTO
	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Lock(ctx, repository.PeriodLock(p.String())); err != nil {
			return err
		}
		c, r, err := readiness(ctx, tx, p)
		if err != nil {
			return err
		}
		if err := closing.CanClose(c, p.String(), r, skipADR, actor); err != nil {
			return err
		}

		start, end := p.Bounds()
		entries, err := tx.Storage().ListOverlapping(ctx, start, end)
		if err != nil {
			return err
		}
		if err := tx.Storage().Finalize(ctx, p.String(), billing.FinalizeStorage(entries, p)); err != nil {
			return err
		}

		now := uc.now()
		if c == nil {
			c = &entity.PeriodClosing{Period: p.String()}
		}
		c.Status = entity.PeriodClosed
		c.ClosedBy = actor.Label()
		c.ClosedAt = &now
		if err := tx.Closings().Save(ctx, c); err != nil {
			return err
		}
		out = toStatus(p, c, r)
		return nil
	})
	uc.metrics.Transition(entity.PeriodClosed, err)
	if err != nil {
		uc.log.Warn().Str("period", p.String()).Str("actor", actor.Label()).Str("code", domain.Code(err)).Msg("cierre rechazado")
		return nil, err
	}
	uc.log.Info().Str("period", p.String()).Str("actor", actor.Label()).Bool("skip_adr", skipADR).Msg("período cerrado")
	return out, nil
}

// Reopen CLOSED → OPEN, solo para roles elevados. Libera los días de almacenaje congelados.
func (uc *UseCase) Reopen(ctx context.Context, periodID string, actor entity.Actor) (*dto.ClosingStatusDTO, error) {
	p, err := parsePeriod(periodID)
	if err != nil {
		return nil, err
	}
	var out *dto.ClosingStatusDTO
	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Lock(ctx, repository.PeriodLock(p.String())); err != nil {
			return err
		}
		c, r, err := readiness(ctx, tx, p)
		if err != nil {
			return err
		}
		if err := closing.CanReopen(c, actor); err != nil {
			return err
		}
		if err := tx.Storage().Finalize(ctx, p.String(), nil); err != nil {
			return err
		}
		now := uc.now()
		c.Status = entity.PeriodOpen
		c.ReopenedBy = actor.Label()
		c.ReopenedAt = &now
		if err := tx.Closings().Save(ctx, c); err != nil {
			return err
		}
		out = toStatus(p, c, r)
		return nil
	})
	uc.metrics.Transition(entity.PeriodOpen, err)
	if err != nil {
		uc.log.Warn().Str("period", p.String()).Str("actor", actor.Label()).Str("code", domain.Code(err)).Msg("reapertura rechazada")
		return nil, err
	}
	uc.log.Info().Str("period", p.String()).Str("actor", actor.Label()).Msg("período reabierto")
	return out, nil
}

// SetClosing despacha al cierre o a la reapertura según el estado pedido.
func (uc *UseCase) SetClosing(ctx context.Context, periodID, status string, skipADR bool, actor entity.Actor) (*dto.ClosingStatusDTO, error) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case entity.PeriodClosed:
		return uc.Close(ctx, periodID, actor, skipADR)
	case entity.PeriodOpen:
		return uc.Reopen(ctx, periodID, actor)
	default:
		return nil, domain.Invalid("status", "debe ser OPEN o CLOSED")
	}
}
