package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Clases de línea de consumo.
const (
	ConsumptionStandard         = "STANDARD"
	ConsumptionHazardPending    = "HAZARD_PENDING"     // pegatina ADR genérica sin desglose
	ConsumptionHazardBrokenDown = "HAZARD_BROKEN_DOWN" // pegatina ADR genérica sustituida por su desglose
)

// ConsumptionLine consumo de un SKU dentro de una carga.
type ConsumptionLine struct {
	SKU      string
	Quantity decimal.Decimal
	Kind     string // ver constantes Consumption*
}

// OperationalLoad carga operativa sincronizada desde la hoja externa.
// ADRBreakdown solo lo escribe un operador y sobrevive a las sincronizaciones.
type OperationalLoad struct {
	Ref              string
	Date             time.Time
	VehicleID        string
	EquipmentID      string
	Consumptions     []ConsumptionLine
	ADRBreakdown     []ConsumptionLine
	Period           string
	Fingerprint      string // huella del contenido actual
	FirstFingerprint string // huella registrada en la primera sincronización
	FirstSyncedAt    time.Time
	LastSyncedAt     time.Time
	BreakdownBy      string
	BreakdownAt      *time.Time
}

// HasBreakdown indica si existe un desglose ADR no vacío.
func (l *OperationalLoad) HasBreakdown() bool {
	for _, b := range l.ADRBreakdown {
		if b.Quantity.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// SortLines ordena por SKU para que el almacenamiento y las huellas sean deterministas.
func SortLines(lines []ConsumptionLine) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })
}

// LinesFromMap convierte el mapa SKU → cantidad de la hoja externa en líneas ordenadas.
func LinesFromMap(m map[string]decimal.Decimal) []ConsumptionLine {
	lines := make([]ConsumptionLine, 0, len(m))
	for sku, qty := range m {
		lines = append(lines, ConsumptionLine{SKU: sku, Quantity: qty, Kind: ConsumptionStandard})
	}
	SortLines(lines)
	return lines
}
