package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/movements (formularios de entrada o consumo manual).
type RegisterMovementRequest struct {
	SKU      string          `json:"sku" validate:"required"`
	Kind     string          `json:"kind" validate:"required,oneof=INBOUND OUTBOUND inbound outbound"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"max=255"`
	Date     string          `json:"date" validate:"required"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Kind       string          `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason"`
	Period     string          `json:"period"`
	LoadRef    *string         `json:"load_reference"`
	Date       time.Time       `json:"date"`
	RecordedAt time.Time       `json:"recorded_at"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// MovementFilter query de GET /api/movements.
type MovementFilter struct {
	SKU        string `query:"sku"`
	Period     string `query:"period"`
	Kind       string `query:"kind" validate:"omitempty,oneof=INBOUND OUTBOUND inbound outbound"`
	LoadRef    string `query:"load_reference"`
	ManualOnly bool   `query:"manual"`
	PageRequest
}

// MovementListResponse listado paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// SnapshotDTO versión del libro usada para calcular una vista.
type SnapshotDTO struct {
	Version int64     `json:"version"`
	TakenAt time.Time `json:"taken_at"`
}

// InventoryItemDTO estado de stock de un artículo.
type InventoryItemDTO struct {
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit,omitempty"`
	Supplier         string          `json:"supplier,omitempty"`
	Stock            decimal.Decimal `json:"stock"`
	SafetyStock      decimal.Decimal `json:"safety_stock"`
	Status           string          `json:"status"`
	WeeklyVelocity   decimal.Decimal `json:"weekly_velocity"`
	LeadTimeDays     int             `json:"lead_time_days"`
	TargetStock      decimal.Decimal `json:"target_stock"`
	SuggestedReorder decimal.Decimal `json:"suggested_reorder"`
}

// InventoryProjectionDTO respuesta de GET /api/inventory.
type InventoryProjectionDTO struct {
	Period   string             `json:"period,omitempty"`
	AsOf     time.Time          `json:"as_of"`
	Snapshot SnapshotDTO        `json:"snapshot"`
	Items    []InventoryItemDTO `json:"items"`
}
