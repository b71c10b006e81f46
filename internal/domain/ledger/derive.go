// Package ledger deriva los movimientos del libro de consumos a partir de una carga operativa.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// Classify etiqueta cada línea de consumo de la carga según el catálogo:
// la pegatina ADR genérica queda HAZARD_PENDING o HAZARD_BROKEN_DOWN según exista desglose.
func Classify(load *entity.OperationalLoad, catalog entity.Catalog) []entity.ConsumptionLine {
	out := make([]entity.ConsumptionLine, 0, len(load.Consumptions))
	broken := load.HasBreakdown()
	for _, line := range load.Consumptions {
		line.Kind = entity.ConsumptionStandard
		if catalog.IsHazardAggregate(line.SKU) {
			if broken {
				line.Kind = entity.ConsumptionHazardBrokenDown
			} else {
				line.Kind = entity.ConsumptionHazardPending
			}
		}
		out = append(out, line)
	}
	return out
}

// HasHazardAggregate indica si la carga consume la pegatina ADR genérica.
func HasHazardAggregate(load *entity.OperationalLoad, catalog entity.Catalog) bool {
	for _, line := range load.Consumptions {
		if line.Quantity.GreaterThan(decimal.Zero) && catalog.IsHazardAggregate(line.SKU) {
			return true
		}
	}
	return false
}

// PendingBreakdown carga con pegatina ADR genérica y sin desglose manual.
func PendingBreakdown(load *entity.OperationalLoad, catalog entity.Catalog) bool {
	return HasHazardAggregate(load, catalog) && !load.HasBreakdown()
}

// Derive genera el conjunto completo de salidas atribuidas a la carga.
// Una salida por SKU con cantidad > 0, salvo la pegatina ADR genérica cuando existe
// desglose: en ese caso se omite y se emite una salida por cada SKU del desglose.
func Derive(load *entity.OperationalLoad, catalog entity.Catalog, recordedAt time.Time) []*entity.Movement {
	ref := load.Ref
	substitute := load.HasBreakdown() && HasHazardAggregate(load, catalog)

	movs := make([]*entity.Movement, 0, len(load.Consumptions)+len(load.ADRBreakdown))
	for _, line := range load.Consumptions {
		if !line.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		if substitute && catalog.IsHazardAggregate(line.SKU) {
			continue
		}
		movs = append(movs, newOutbound(load, &ref, line, fmt.Sprintf("Carga %s", ref), recordedAt))
	}
	if substitute {
		for _, line := range load.ADRBreakdown {
			if !line.Quantity.GreaterThan(decimal.Zero) {
				continue
			}
			movs = append(movs, newOutbound(load, &ref, line, fmt.Sprintf("Carga %s (desglose ADR)", ref), recordedAt))
		}
	}
	return movs
}

func newOutbound(load *entity.OperationalLoad, ref *string, line entity.ConsumptionLine, reason string, recordedAt time.Time) *entity.Movement {
	return &entity.Movement{
		ID:         uuid.New().String(),
		SKU:        line.SKU,
		Kind:       entity.MovementOutbound,
		Quantity:   line.Quantity,
		Reason:     reason,
		Period:     load.Period,
		LoadRef:    ref,
		Date:       load.Date,
		RecordedAt: recordedAt,
	}
}

// SameOutbound indica si dos conjuntos de salidas consumen lo mismo por SKU,
// sin tener en cuenta identificadores ni fechas de registro.
func SameOutbound(a, b []*entity.Movement) bool {
	sum := func(movs []*entity.Movement) map[string]decimal.Decimal {
		out := make(map[string]decimal.Decimal, len(movs))
		for _, m := range movs {
			out[m.SKU] = out[m.SKU].Add(m.Quantity)
		}
		return out
	}
	sa, sb := sum(a), sum(b)
	if len(sa) != len(sb) {
		return false
	}
	for sku, q := range sa {
		if other, ok := sb[sku]; !ok || !other.Equal(q) {
			return false
		}
	}
	return true
}
