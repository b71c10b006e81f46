package repository

import (
	"context"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// PeriodClosingRepository estado de cierre por período. Get devuelve nil, nil si no hay registro.
type PeriodClosingRepository interface {
	Get(ctx context.Context, period string) (*entity.PeriodClosing, error)
	Save(ctx context.Context, c *entity.PeriodClosing) error
}
