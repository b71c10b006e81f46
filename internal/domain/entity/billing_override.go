package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingOverride cantidad facturada fijada por un operador para una línea de facturación.
type BillingOverride struct {
	Period   string
	LineKey  string // MAT:<carga>:<sku> | ALM:<almacenaje> | PAL:<expedición>
	Quantity decimal.Decimal
	SetBy    string
	SetAt    time.Time
}
