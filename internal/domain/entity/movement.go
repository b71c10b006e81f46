package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de consumos.
const (
	MovementInbound  = "INBOUND"  // entrada
	MovementOutbound = "OUTBOUND" // salida / consumo
)

// Movement representa un movimiento de stock. Nunca se actualiza: las correcciones
// son movimientos nuevos o la regeneración completa de los movimientos de una carga.
type Movement struct {
	ID         string
	SKU        string
	Kind       string          // INBOUND | OUTBOUND
	Quantity   decimal.Decimal // siempre >= 0
	Reason     string          // texto libre ("regularización", "Carga C123"...)
	Period     string          // período de facturación "YYYY-MM"
	LoadRef    *string         // carga que lo generó; nil en altas manuales
	Date       time.Time       // fecha del hecho (fecha de la carga o del formulario)
	RecordedAt time.Time
	CreatedBy  string
}

// IsManual indica si el movimiento proviene de un formulario y no de una carga.
func (m *Movement) IsManual() bool { return m.LoadRef == nil }

// SignedQuantity cantidad con signo (+ entrada, - salida).
func (m *Movement) SignedQuantity() decimal.Decimal {
	if m.Kind == MovementOutbound {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
