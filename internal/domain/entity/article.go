package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de artículo. La pegatina ADR genérica se identifica solo por su categoría,
// nunca por coincidencias de texto en el SKU o el nombre.
const (
	CategoryGeneral      = "GENERAL"
	CategoryADRAggregate = "ADR_AGGREGATE" // pegatina de mercancía peligrosa genérica (pendiente de desglose)
	CategoryADRSpecific  = "ADR_SPECIFIC"  // pegatina ADR concreta, destino de un desglose
)

// Article representa un consumible del catálogo (maestro externo, solo lectura para el motor).
type Article struct {
	SKU          string // código único
	Name         string
	Unit         string
	Category     string // ver constantes Category*
	SafetyStock  decimal.Decimal
	InitialStock decimal.Decimal
	Supplier     string
	LeadTimeDays int
	SalePrice    decimal.Decimal
	Active       bool
	UpdatedAt    time.Time
}

// IsHazardAggregate indica si el artículo es la pegatina ADR genérica.
func (a *Article) IsHazardAggregate() bool {
	return a != nil && a.Category == CategoryADRAggregate
}

// Catalog búsqueda de artículos por SKU.
type Catalog map[string]*Article

// NewCatalog indexa una lista de artículos por SKU.
func NewCatalog(articles []*Article) Catalog {
	c := make(Catalog, len(articles))
	for _, a := range articles {
		c[a.SKU] = a
	}
	return c
}

// IsHazardAggregate indica si el SKU es la pegatina ADR genérica según el catálogo.
func (c Catalog) IsHazardAggregate(sku string) bool {
	return c[sku].IsHazardAggregate()
}
