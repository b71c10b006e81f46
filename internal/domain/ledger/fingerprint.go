package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

var upper = cases.Upper(language.Und)

// NormalizeID normaliza matrículas y códigos de equipo: sin acentos, sin espacios ni guiones,
// en mayúsculas ("1234-abc " y "1234 ABC" son el mismo vehículo).
func NormalizeID(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '.' || r == '/' {
			return -1
		}
		return r
	}, out)
	return upper.String(out)
}

// Fingerprint huella SHA-256 del contenido sincronizado de la carga (fecha, vehículo,
// equipo y consumos). Estable ante reordenaciones del mapa y ceros a la derecha.
func Fingerprint(load *entity.OperationalLoad) string {
	parts := make([]string, 0, len(load.Consumptions))
	for _, line := range load.Consumptions {
		if line.Quantity.IsZero() {
			continue
		}
		parts = append(parts, strings.TrimSpace(line.SKU)+"="+line.Quantity.String())
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString(load.Date.Format("2006-01-02"))
	b.WriteByte('|')
	b.WriteString(NormalizeID(load.VehicleID))
	b.WriteByte('|')
	b.WriteString(NormalizeID(load.EquipmentID))
	b.WriteByte('|')
	b.WriteString(strings.Join(parts, ";"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
