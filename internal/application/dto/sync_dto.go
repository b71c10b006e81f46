package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LoadInput registro de carga tal como llega de la hoja externa.
// Los campos se validan por registro en el reconciliador: un registro inválido no aborta el lote.
// Las cantidades se guardan sin interpretar (número o texto de la celda) para que una celda
// mal escrita falle solo su carga.
type LoadInput struct {
	Ref          string                     `json:"ref"`
	Date         string                     `json:"date"`
	VehicleID    string                     `json:"vehicle_id"`
	EquipmentID  string                     `json:"equipment_id"`
	Consumptions map[string]json.RawMessage `json:"consumptions"`
}

// Cell celda de cantidad con el valor d.
func Cell(d decimal.Decimal) json.RawMessage {
	return json.RawMessage(d.String())
}

// SyncLoadsRequest body para POST /api/sync/loads.
type SyncLoadsRequest struct {
	Loads []LoadInput `json:"loads" validate:"max=5000"`
}

// Estados de reconciliación por carga.
const (
	OutcomeCreated   = "CREATED"
	OutcomeUpdated   = "UPDATED"
	OutcomeUnchanged = "UNCHANGED"
	OutcomeFailed    = "FAILED"
)

// LoadOutcome resultado de reconciliar una carga.
type LoadOutcome struct {
	Ref       string `json:"ref"`
	Status    string `json:"status"`
	Period    string `json:"period,omitempty"`
	Movements int    `json:"movements"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReconcileResult resumen de un lote.
type ReconcileResult struct {
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Outcomes  []LoadOutcome `json:"outcomes"`
}

// ConsumptionLineDTO línea de consumo de una carga.
type ConsumptionLineDTO struct {
	SKU      string          `json:"sku" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Kind     string          `json:"kind,omitempty"`
}

// ADRBreakdownRequest body para PUT /api/loads/:ref/adr-breakdown. Lista vacía elimina el desglose.
type ADRBreakdownRequest struct {
	Lines []ConsumptionLineDTO `json:"lines" validate:"dive"`
}

// LoadFilter query de GET /api/loads.
type LoadFilter struct {
	Period           string `query:"period"`
	VehicleID        string `query:"vehicle_id"`
	OnlyDuplicates   bool   `query:"duplicates"`
	OnlyModified     bool   `query:"modified"`
	PendingBreakdown bool   `query:"pending_breakdown"`
}

// LoadResponse carga con sus marcas de duplicado y modificación.
type LoadResponse struct {
	Ref              string               `json:"ref"`
	Date             time.Time            `json:"date"`
	VehicleID        string               `json:"vehicle_id"`
	EquipmentID      string               `json:"equipment_id"`
	Period           string               `json:"period"`
	Consumptions     []ConsumptionLineDTO `json:"consumptions"`
	ADRBreakdown     []ConsumptionLineDTO `json:"adr_breakdown,omitempty"`
	Duplicate        bool                 `json:"duplicate"`
	DuplicateOf      []string             `json:"duplicate_of,omitempty"`
	Modified         bool                 `json:"modified"`
	PendingBreakdown bool                 `json:"pending_breakdown"`
	FirstSyncedAt    time.Time            `json:"first_synced_at"`
	LastSyncedAt     time.Time            `json:"last_synced_at"`
	BreakdownBy      string               `json:"breakdown_by,omitempty"`
	BreakdownAt      *time.Time           `json:"breakdown_at,omitempty"`
}
