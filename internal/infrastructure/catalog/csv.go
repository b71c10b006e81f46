// Package catalog lee el maestro de artículos exportado desde la hoja de cálculo (CSV).
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// Columnas reconocidas (cabecera obligatoria, orden libre). Solo sku es obligatoria.
const (
	colSKU          = "sku"
	colName         = "name"
	colUnit         = "unit"
	colCategory     = "category"
	colSafetyStock  = "safety_stock"
	colInitialStock = "initial_stock"
	colSupplier     = "supplier"
	colLeadTime     = "lead_time_days"
	colSalePrice    = "sale_price"
	colActive       = "active"
)

// Decoder envuelve r según el charset declarado; las exportaciones de Excel suelen venir en ISO-8859-1.
func Decoder(r io.Reader, charset string) io.Reader {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(charset), "_", "-")) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	return r
}

// Read parsea el CSV (separador ',' o ';') y devuelve los artículos en orden de aparición.
// Un SKU repetido sustituye al anterior.
func Read(r io.Reader, charset string) ([]*entity.Article, error) {
	all, err := readRecords(Decoder(r, charset))
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("catálogo vacío")
	}
	idx := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := idx[colSKU]; !ok {
		return nil, fmt.Errorf("catálogo sin columna %q", colSKU)
	}

	bySKU := make(map[string]int)
	out := make([]*entity.Article, 0, len(all)-1)
	for n, rec := range all[1:] {
		line := n + 2
		get := func(col string) string {
			if i, ok := idx[col]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		a, err := parseArticle(get)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if a == nil {
			continue
		}
		if i, ok := bySKU[a.SKU]; ok {
			out[i] = a
			continue
		}
		bySKU[a.SKU] = len(out)
		out = append(out, a)
	}
	return out, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	cr := csv.NewReader(strings.NewReader(string(raw)))
	first, _, _ := strings.Cut(string(raw), "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsear CSV: %w", err)
	}
	return records, nil
}

func parseArticle(get func(string) string) (*entity.Article, error) {
	sku := get(colSKU)
	if sku == "" {
		return nil, nil
	}
	a := &entity.Article{
		SKU:      sku,
		Name:     get(colName),
		Unit:     get(colUnit),
		Category: strings.ToUpper(get(colCategory)),
		Supplier: get(colSupplier),
		Active:   true,
	}
	switch a.Category {
	case "":
		a.Category = entity.CategoryGeneral
	case entity.CategoryGeneral, entity.CategoryADRAggregate, entity.CategoryADRSpecific:
	default:
		return nil, fmt.Errorf("%s: categoría %q desconocida", sku, a.Category)
	}

	var err error
	if a.SafetyStock, err = number(get(colSafetyStock)); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", sku, colSafetyStock, err)
	}
	if a.InitialStock, err = number(get(colInitialStock)); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", sku, colInitialStock, err)
	}
	if a.SalePrice, err = number(get(colSalePrice)); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", sku, colSalePrice, err)
	}
	if s := get(colLeadTime); s != "" {
		if a.LeadTimeDays, err = strconv.Atoi(s); err != nil || a.LeadTimeDays < 0 {
			return nil, fmt.Errorf("%s: %s %q inválido", sku, colLeadTime, s)
		}
	}
	if s := get(colActive); s != "" {
		switch strings.ToLower(s) {
		case "1", "true", "si", "sí", "s", "yes":
		case "0", "false", "no", "n":
			a.Active = false
		default:
			return nil, fmt.Errorf("%s: %s %q inválido", sku, colActive, s)
		}
	}
	return a, nil
}

// number acepta coma decimal ("1,5") además de punto.
func number(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("no puede ser negativo")
	}
	return d, nil
}
