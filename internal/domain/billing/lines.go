// Package billing construye las líneas facturables de un período y sus totales.
package billing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
)

// Orígenes de línea.
const (
	SourceMaterial = "MATERIAL"
	SourceStorage  = "ALMACENAJE"
	SourcePallet   = "PALET"
)

// Prefijos de clave de línea.
const (
	prefixMaterial = "MAT"
	prefixStorage  = "ALM"
	prefixPallet   = "PAL"
)

// Line línea facturable con cantidad real y cantidad facturada (ajustable).
type Line struct {
	Key            string
	Source         string
	LoadRef        string
	SKU            string
	Description    string
	Date           time.Time
	RealQuantity   decimal.Decimal
	BilledQuantity decimal.Decimal
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	IsModified     bool
}

// Totals importes agregados por origen.
type Totals struct {
	Materials decimal.Decimal
	Storage   decimal.Decimal
	Pallets   decimal.Decimal
	Total     decimal.Decimal
}

// MaterialKey clave de una línea de material (carga + SKU).
func MaterialKey(loadRef, sku string) string {
	return prefixMaterial + ":" + loadRef + ":" + sku
}

// StorageKey clave de una línea de almacenaje.
func StorageKey(entryID string) string { return prefixStorage + ":" + entryID }

// PalletKey clave de una línea de palés.
func PalletKey(expeditionID string) string { return prefixPallet + ":" + expeditionID }

// ValidateKey comprueba el formato de una clave de línea. Referencias y SKU pueden contener ':',
// la pertenencia exacta la decide la comparación con las líneas del período.
func ValidateKey(key string) error {
	prefix, rest, ok := strings.Cut(key, ":")
	switch {
	case !ok || rest == "":
	case prefix == prefixMaterial:
		if i := strings.Index(rest, ":"); i > 0 && i < len(rest)-1 {
			return nil
		}
	case prefix == prefixStorage, prefix == prefixPallet:
		return nil
	}
	return fmt.Errorf("clave de línea %q inválida", key)
}

// Builder genera las líneas de un período. No tiene estado mutable compartido.
type Builder struct {
	Period           period.ID
	Catalog          entity.Catalog
	Overrides        map[string]decimal.Decimal
	StorageDailyRate decimal.Decimal
	PalletUnitPrice  decimal.Decimal
}

func (b Builder) billed(key string, realQty decimal.Decimal) (decimal.Decimal, bool) {
	if q, ok := b.Overrides[key]; ok {
		return q, !q.Equal(realQty)
	}
	return realQty, false
}

// MaterialLines una línea por (carga, SKU) a partir de las salidas de cargas del período.
func (b Builder) MaterialLines(movs []*entity.Movement) []Line {
	byKey := make(map[string]*Line)
	keys := make([]string, 0)
	for _, m := range movs {
		if m.Kind != entity.MovementOutbound || m.LoadRef == nil || m.Period != b.Period.String() {
			continue
		}
		key := MaterialKey(*m.LoadRef, m.SKU)
		l, ok := byKey[key]
		if !ok {
			l = &Line{Key: key, Source: SourceMaterial, LoadRef: *m.LoadRef, SKU: m.SKU, Date: m.Date}
			if a := b.Catalog[m.SKU]; a != nil {
				l.Description = a.Name
				l.UnitPrice = a.SalePrice
			}
			byKey[key] = l
			keys = append(keys, key)
		}
		l.RealQuantity = l.RealQuantity.Add(m.Quantity)
	}
	sort.Strings(keys)

	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		l := byKey[k]
		l.BilledQuantity, l.IsModified = b.billed(k, l.RealQuantity)
		l.Amount = l.BilledQuantity.Mul(l.UnitPrice)
		lines = append(lines, *l)
	}
	return lines
}

// BillableDays días facturables de un almacenaje hasta el fin del período:
// max(0, días(inicio_facturación, min(salida, fin_período)) + 1).
// Si el período ya se cerró se usan los días congelados.
func BillableDays(e *entity.StorageEntry, p period.ID) int {
	if e.FinalizedDays != nil && e.FinalizedPeriod == p.String() {
		return *e.FinalizedDays
	}
	_, end := p.Bounds()
	if e.ExitDate != nil && e.ExitDate.Before(end) {
		end = period.DateOnly(*e.ExitDate)
	}
	days := period.DaysBetween(e.BillingStartDate, end) + 1
	if days < 0 {
		return 0
	}
	return days
}

// StorageBillable indica si el almacenaje se factura en el período: empezó a facturarse
// antes del fin del período y no salió antes de su inicio.
func StorageBillable(e *entity.StorageEntry, p period.ID) bool {
	start, end := p.Bounds()
	if period.DateOnly(e.BillingStartDate).After(end) {
		return false
	}
	return e.ExitDate == nil || !period.DateOnly(*e.ExitDate).Before(start)
}

// StorageLines líneas de almacenaje; el importe es días facturados * tarifa diaria.
func (b Builder) StorageLines(entries []*entity.StorageEntry) []Line {
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		if !StorageBillable(e, b.Period) {
			continue
		}
		rate := e.DailyRate
		if rate.IsZero() {
			rate = b.StorageDailyRate
		}
		key := StorageKey(e.ID)
		realQty := decimal.NewFromInt(int64(BillableDays(e, b.Period)))
		billed, modified := b.billed(key, realQty)
		lines = append(lines, Line{
			Key:            key,
			Source:         SourceStorage,
			Description:    fmt.Sprintf("Almacenaje %s (%s)", e.ContainerID, e.Provider),
			Date:           e.BillingStartDate,
			RealQuantity:   realQty,
			BilledQuantity: billed,
			UnitPrice:      rate,
			Amount:         billed.Mul(rate),
			IsModified:     modified,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}

// PalletLines una línea por expedición del período.
func (b Builder) PalletLines(exps []*entity.PalletExpedition) []Line {
	lines := make([]Line, 0, len(exps))
	for _, x := range exps {
		if x.Period != b.Period.String() {
			continue
		}
		key := PalletKey(x.ID)
		billed, modified := b.billed(key, x.ResultingPallets)
		lines = append(lines, Line{
			Key:            key,
			Source:         SourcePallet,
			Description:    fmt.Sprintf("Palés expedición %s", x.Reference),
			Date:           x.Date,
			RealQuantity:   x.ResultingPallets,
			BilledQuantity: billed,
			UnitPrice:      b.PalletUnitPrice,
			Amount:         billed.Mul(b.PalletUnitPrice),
			IsModified:     modified,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}

// Build materiales, almacenaje y palés en ese orden, con sus totales.
func (b Builder) Build(movs []*entity.Movement, entries []*entity.StorageEntry, exps []*entity.PalletExpedition) ([]Line, Totals) {
	lines := b.MaterialLines(movs)
	lines = append(lines, b.StorageLines(entries)...)
	lines = append(lines, b.PalletLines(exps)...)
	return lines, Sum(lines)
}

// Sum totales; las líneas de almacenaje ya traen su importe precalculado.
func Sum(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		switch l.Source {
		case SourceMaterial:
			t.Materials = t.Materials.Add(l.Amount)
		case SourceStorage:
			t.Storage = t.Storage.Add(l.Amount)
		case SourcePallet:
			t.Pallets = t.Pallets.Add(l.Amount)
		}
	}
	t.Total = t.Materials.Add(t.Storage).Add(t.Pallets)
	return t
}

// FinalizeStorage días a congelar al cerrar el período: almacenajes que salieron dentro de él.
func FinalizeStorage(entries []*entity.StorageEntry, p period.ID) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		if e.ExitDate == nil || period.Of(*e.ExitDate) != p || !StorageBillable(e, p) {
			continue
		}
		out[e.ID] = BillableDays(e, p)
	}
	return out
}
