package closing

import (
	"sort"

	"github.com/jhoicas/consumibles-api/internal/domain/detection"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/ledger"
)

// Assess calcula la disposición para el cierre a partir de las cargas del período.
func Assess(loads []*entity.OperationalLoad, catalog entity.Catalog) Readiness {
	r := Readiness{
		Duplicates:        detection.CountDuplicates(detection.Classify(loads)),
		PendingBreakdowns: []string{},
	}
	for _, l := range loads {
		if ledger.PendingBreakdown(l, catalog) {
			r.PendingBreakdowns = append(r.PendingBreakdowns, l.Ref)
		}
	}
	sort.Strings(r.PendingBreakdowns)
	return r
}

// Ready indica si el período puede cerrarse sin omitir comprobaciones.
func (r Readiness) Ready() bool {
	return r.Duplicates == 0 && len(r.PendingBreakdowns) == 0
}
