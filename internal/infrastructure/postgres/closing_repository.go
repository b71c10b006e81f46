package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.PeriodClosingRepository = (*PeriodClosingRepo)(nil)

// PeriodClosingRepo estado de cierre por período.
type PeriodClosingRepo struct {
	q Querier
}

// NewPeriodClosingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPeriodClosingRepository(q Querier) *PeriodClosingRepo {
	return &PeriodClosingRepo{q: q}
}

// Get devuelve nil, nil si el período nunca se cerró (equivale a OPEN).
func (r *PeriodClosingRepo) Get(ctx context.Context, period string) (*entity.PeriodClosing, error) {
	var c entity.PeriodClosing
	var closedBy, reopenedBy *string
	err := r.q.QueryRow(ctx, `
		SELECT period, status, closed_by, closed_at, reopened_by, reopened_at
		FROM period_closings WHERE period = $1`, period).
		Scan(&c.Period, &c.Status, &closedBy, &c.ClosedAt, &reopenedBy, &c.ReopenedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get period closing: %w", err)
	}
	c.ClosedBy = deref(closedBy)
	c.ReopenedBy = deref(reopenedBy)
	return &c, nil
}

// Save crea o actualiza el estado del período.
func (r *PeriodClosingRepo) Save(ctx context.Context, c *entity.PeriodClosing) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO period_closings (period, status, closed_by, closed_at, reopened_by, reopened_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (period) DO UPDATE SET
			status = EXCLUDED.status,
			closed_by = EXCLUDED.closed_by,
			closed_at = EXCLUDED.closed_at,
			reopened_by = EXCLUDED.reopened_by,
			reopened_at = EXCLUDED.reopened_at`,
		c.Period, c.Status, nullable(c.ClosedBy), c.ClosedAt, nullable(c.ReopenedBy), c.ReopenedAt)
	if err != nil {
		return fmt.Errorf("save period closing: %w", err)
	}
	return nil
}
