package repository

import (
	"context"
	"time"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// MovementFilter criterios de consulta del libro. Campos vacíos no filtran.
type MovementFilter struct {
	SKU        string
	Period     string
	Kind       string
	LoadRef    string
	ManualOnly bool
	Until      *time.Time // movimientos con fecha <= Until
	Limit      int
	Offset     int
}

// Snapshot versión del libro sobre la que se calculó una vista derivada.
type Snapshot struct {
	Version int64
	TakenAt time.Time
}

// MovementRepository puerto del libro de movimientos. Los movimientos no se actualizan.
type MovementRepository interface {
	Insert(ctx context.Context, m *entity.Movement) error
	// ReplaceForLoad sustituye atómicamente todos los movimientos de la carga por movs.
	ReplaceForLoad(ctx context.Context, loadRef string, movs []*entity.Movement) error
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
	// Version contador que avanza con cada escritura del libro.
	Version(ctx context.Context) (int64, error)
}
