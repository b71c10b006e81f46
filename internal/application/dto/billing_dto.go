package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingLineDTO línea facturable.
type BillingLineDTO struct {
	Key            string          `json:"key"`
	Source         string          `json:"source"`
	LoadRef        string          `json:"load_reference,omitempty"`
	SKU            string          `json:"sku,omitempty"`
	Description    string          `json:"description"`
	Date           time.Time       `json:"date"`
	RealQuantity   decimal.Decimal `json:"real_quantity"`
	BilledQuantity decimal.Decimal `json:"billed_quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Amount         decimal.Decimal `json:"amount"`
	IsModified     bool            `json:"is_modified"`
}

// BillingTotalsDTO totales por origen.
type BillingTotalsDTO struct {
	Materials decimal.Decimal `json:"materials"`
	Storage   decimal.Decimal `json:"storage"`
	Pallets   decimal.Decimal `json:"pallets"`
	Total     decimal.Decimal `json:"total"`
}

// BillingReportDTO respuesta de GET /api/billing/:period.
type BillingReportDTO struct {
	Period   string           `json:"period"`
	Status   string           `json:"status"`
	Lines    []BillingLineDTO `json:"lines"`
	Totals   BillingTotalsDTO `json:"totals"`
	Snapshot SnapshotDTO      `json:"snapshot"`
}

// SetOverrideRequest body para PUT /api/billing/:period/overrides. Quantity nula elimina el ajuste.
type SetOverrideRequest struct {
	LineKey  string           `json:"line_key" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity"`
}

// StorageEntryRequest body para POST /api/storage.
type StorageEntryRequest struct {
	ContainerID  string           `json:"container_id" validate:"required,max=64"`
	OrderNumbers []string         `json:"order_numbers"`
	Provider     string           `json:"provider" validate:"max=128"`
	EntryDate    string           `json:"entry_date" validate:"required"`
	DailyRate    *decimal.Decimal `json:"daily_rate,omitempty"`
}

// StorageExitRequest body para POST /api/storage/:id/exit.
type StorageExitRequest struct {
	ExitDate  string `json:"exit_date" validate:"required"`
	Procedure string `json:"procedure" validate:"required,oneof=RECOGER ENVIAR DESTRUIR"`
}

// StorageEntryResponse entrada de almacenaje.
type StorageEntryResponse struct {
	ID               string          `json:"id"`
	ContainerID      string          `json:"container_id"`
	OrderNumbers     []string        `json:"order_numbers"`
	Provider         string          `json:"provider"`
	EntryDate        time.Time       `json:"entry_date"`
	BillingStartDate time.Time       `json:"billing_start_date"`
	ExitDate         *time.Time      `json:"exit_date,omitempty"`
	Procedure        string          `json:"procedure,omitempty"`
	Status           string          `json:"status"`
	DailyRate        decimal.Decimal `json:"daily_rate"`
	FinalizedDays    *int            `json:"finalized_days,omitempty"`
}

// PalletExpeditionRequest body para POST /api/pallets.
type PalletExpeditionRequest struct {
	Reference        string          `json:"reference" validate:"required,max=64"`
	Date             string          `json:"date" validate:"required"`
	ResultingPallets decimal.Decimal `json:"resulting_pallets"`
}

// PalletExpeditionResponse expedición registrada.
type PalletExpeditionResponse struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	Date             time.Time       `json:"date"`
	Period           string          `json:"period"`
	ResultingPallets decimal.Decimal `json:"resulting_pallets"`
}
