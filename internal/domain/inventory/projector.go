package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
)

// Estados de stock.
const (
	StatusNoStock = "SIN_STOCK"
	StatusReorder = "REPONER"
	StatusInStock = "EN_STOCK"
)

// DefaultVelocityWindowDays ventana de consumo reciente usada para la velocidad semanal.
const DefaultVelocityWindowDays = 30

var seven = decimal.NewFromInt(7)

// Status estado derivado de un artículo a partir del libro de consumos.
type Status struct {
	SKU              string
	Name             string
	Unit             string
	Supplier         string
	InitialStock     decimal.Decimal
	Inbound          decimal.Decimal
	Outbound         decimal.Decimal
	Stock            decimal.Decimal // inicial + entradas - salidas
	SafetyStock      decimal.Decimal
	LeadTimeDays     int
	Status           string
	WeeklyVelocity   decimal.Decimal // salidas de la ventana / días * 7, 1 decimal
	TargetStock      decimal.Decimal // seguridad + velocidad * plazo / 7
	SuggestedReorder decimal.Decimal // solo si stock < seguridad
}

// Projector proyecta stock y reposición (servicio de dominio, sin estado mutable).
type Projector struct {
	WindowDays int
}

// NewProjector construye el proyector; windowDays <= 0 usa la ventana por defecto.
func NewProjector(windowDays int) Projector {
	if windowDays <= 0 {
		windowDays = DefaultVelocityWindowDays
	}
	return Projector{WindowDays: windowDays}
}

// Project calcula el estado del artículo con los movimientos de su SKU hasta asOf.
// Los movimientos de otros SKUs o posteriores a asOf se ignoran.
func (p Projector) Project(a *entity.Article, movs []*entity.Movement, asOf time.Time) Status {
	st := Status{
		SKU:          a.SKU,
		Name:         a.Name,
		Unit:         a.Unit,
		Supplier:     a.Supplier,
		InitialStock: a.InitialStock,
		SafetyStock:  a.SafetyStock,
		LeadTimeDays: a.LeadTimeDays,
	}

	day := period.DateOnly(asOf)
	windowStart := day.AddDate(0, 0, -p.WindowDays)
	recentOut := decimal.Zero
	for _, m := range movs {
		if m.SKU != a.SKU || m.Date.After(day) {
			continue
		}
		switch m.Kind {
		case entity.MovementInbound:
			st.Inbound = st.Inbound.Add(m.Quantity)
		case entity.MovementOutbound:
			st.Outbound = st.Outbound.Add(m.Quantity)
			if m.Date.After(windowStart) {
				recentOut = recentOut.Add(m.Quantity)
			}
		}
	}
	st.Stock = a.InitialStock.Add(st.Inbound).Sub(st.Outbound)
	st.Status = Classify(st.Stock, a.SafetyStock)
	st.WeeklyVelocity = WeeklyVelocity(recentOut, p.WindowDays)
	st.TargetStock = TargetStock(a.SafetyStock, st.WeeklyVelocity, a.LeadTimeDays)
	st.SuggestedReorder = SuggestedReorder(st.Stock, a.SafetyStock, st.TargetStock)
	return st
}

// Classify sin stock (<= 0), reponer (<= seguridad) o en stock.
func Classify(stock, safety decimal.Decimal) string {
	switch {
	case stock.LessThanOrEqual(decimal.Zero):
		return StatusNoStock
	case stock.LessThanOrEqual(safety):
		return StatusReorder
	default:
		return StatusInStock
	}
}

// WeeklyVelocity consumo semanal a partir del consumo de una ventana de días.
// Ventana vacía o no positiva devuelve cero.
func WeeklyVelocity(outbound decimal.Decimal, windowDays int) decimal.Decimal {
	if windowDays <= 0 {
		return decimal.Zero
	}
	return outbound.Div(decimal.NewFromInt(int64(windowDays))).Mul(seven).Round(1)
}

// TargetStock stock objetivo = seguridad + velocidad * plazo / 7. Sin plazo no suma cobertura.
func TargetStock(safety, weeklyVelocity decimal.Decimal, leadTimeDays int) decimal.Decimal {
	if leadTimeDays <= 0 {
		return safety
	}
	return safety.Add(weeklyVelocity.Mul(decimal.NewFromInt(int64(leadTimeDays))).Div(seven))
}

// SuggestedReorder max(0, ceil(objetivo - stock)) cuando stock < seguridad; cero en otro caso.
func SuggestedReorder(stock, safety, target decimal.Decimal) decimal.Decimal {
	if !stock.LessThan(safety) {
		return decimal.Zero
	}
	q := target.Sub(stock).Ceil()
	if q.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return q
}
