package repository

import (
	"context"
	"time"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// BillingOverrideRepository cantidades facturadas fijadas a mano, por período y clave de línea.
type BillingOverrideRepository interface {
	ListByPeriod(ctx context.Context, period string) ([]*entity.BillingOverride, error)
	Upsert(ctx context.Context, o *entity.BillingOverride) error
	Delete(ctx context.Context, period, lineKey string) error
}

// StorageEntryRepository contenedores almacenados.
type StorageEntryRepository interface {
	Create(ctx context.Context, e *entity.StorageEntry) error
	// Get devuelve nil, nil si no existe.
	Get(ctx context.Context, id string) (*entity.StorageEntry, error)
	Update(ctx context.Context, e *entity.StorageEntry) error
	// ListOverlapping entradas que empiezan a facturar antes de end y siguen activas o salieron desde start.
	ListOverlapping(ctx context.Context, start, end time.Time) ([]*entity.StorageEntry, error)
	// Finalize fija el conjunto de días congelados del período: las entradas de days quedan
	// congeladas y las que estaban congeladas para ese período y no aparecen se liberan.
	Finalize(ctx context.Context, period string, days map[string]int) error
}

// PalletExpeditionRepository expediciones con consumo de palés.
type PalletExpeditionRepository interface {
	Create(ctx context.Context, x *entity.PalletExpedition) error
	Get(ctx context.Context, id string) (*entity.PalletExpedition, error)
	ListByPeriod(ctx context.Context, period string) ([]*entity.PalletExpedition, error)
}
