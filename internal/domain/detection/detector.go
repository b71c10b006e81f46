// Package detection clasifica cargas como duplicadas o modificadas en tiempo de lectura.
package detection

import (
	"sort"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/ledger"
)

// Flags marcas derivadas de una carga.
type Flags struct {
	Duplicate   bool
	DuplicateOf []string // refs con la misma huella vehículo+equipo+fecha
	Modified    bool
}

// DuplicateKey huella de duplicado: vehículo + equipo + fecha de calendario normalizados.
// Devuelve "" si falta vehículo o equipo (no se puede afirmar duplicidad).
func DuplicateKey(load *entity.OperationalLoad) string {
	v := ledger.NormalizeID(load.VehicleID)
	e := ledger.NormalizeID(load.EquipmentID)
	if v == "" || e == "" || load.Date.IsZero() {
		return ""
	}
	return v + "|" + e + "|" + load.Date.Format("2006-01-02")
}

// IsModified indica si el contenido cambió desde la primera sincronización.
func IsModified(load *entity.OperationalLoad) bool {
	if load.FirstFingerprint == "" {
		return false
	}
	current := load.Fingerprint
	if current == "" {
		current = ledger.Fingerprint(load)
	}
	return current != load.FirstFingerprint
}

// Classify calcula las marcas de cada carga del conjunto (por ref).
// La relación de duplicado es simétrica: si X es duplicada de Y, Y lo es de X.
func Classify(loads []*entity.OperationalLoad) map[string]Flags {
	groups := make(map[string][]string)
	for _, l := range loads {
		if k := DuplicateKey(l); k != "" {
			groups[k] = append(groups[k], l.Ref)
		}
	}

	out := make(map[string]Flags, len(loads))
	for _, l := range loads {
		f := Flags{Modified: IsModified(l)}
		key := DuplicateKey(l)
		if refs := groups[key]; key != "" && len(refs) > 1 {
			f.Duplicate = true
			for _, r := range refs {
				if r != l.Ref {
					f.DuplicateOf = append(f.DuplicateOf, r)
				}
			}
			sort.Strings(f.DuplicateOf)
		}
		out[l.Ref] = f
	}
	return out
}

// CountDuplicates número de cargas marcadas como duplicadas.
func CountDuplicates(flags map[string]Flags) int {
	n := 0
	for _, f := range flags {
		if f.Duplicate {
			n++
		}
	}
	return n
}
