package repository

import (
	"context"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// LoadFilter criterios de consulta de cargas.
type LoadFilter struct {
	Period    string
	VehicleID string
}

// LoadRepository puerto de persistencia de cargas operativas.
type LoadRepository interface {
	// Get devuelve nil, nil si la carga no existe.
	Get(ctx context.Context, ref string) (*entity.OperationalLoad, error)
	Upsert(ctx context.Context, l *entity.OperationalLoad) error
	List(ctx context.Context, f LoadFilter) ([]*entity.OperationalLoad, error)
}
