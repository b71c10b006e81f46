// Package period implementa el calendario logístico de facturación: cada período
// va del día 26 de un mes al 25 del siguiente y se nombra por este último ("YYYY-MM").
package period

import (
	"fmt"
	"strings"
	"time"
)

// CutoverDay primer día del mes que ya pertenece al período siguiente.
const CutoverDay = 26

const layout = "2006-01"

// ID identificador de período de facturación ("2026-02").
type ID string

// Of devuelve el período al que pertenece la fecha. Única implementación del cálculo:
// todos los componentes deben pasar por aquí.
func Of(t time.Time) ID {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	if d >= CutoverDay {
		first = first.AddDate(0, 1, 0)
	}
	return ID(first.Format(layout))
}

// Parse valida un identificador "YYYY-MM".
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("período %q inválido: se espera YYYY-MM", s)
	}
	return ID(t.Format(layout)), nil
}

func (id ID) String() string { return string(id) }

func (id ID) month() time.Time {
	t, err := time.Parse(layout, string(id))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Bounds devuelve el primer y último día (inclusive, medianoche UTC) del período.
func (id ID) Bounds() (start, end time.Time) {
	m := id.month()
	start = time.Date(m.Year(), m.Month()-1, CutoverDay, 0, 0, 0, 0, time.UTC)
	end = time.Date(m.Year(), m.Month(), CutoverDay-1, 0, 0, 0, 0, time.UTC)
	return start, end
}

// Contains indica si la fecha cae dentro del período.
func (id ID) Contains(t time.Time) bool {
	return Of(t) == id
}

// Next período siguiente.
func (id ID) Next() ID {
	return ID(id.month().AddDate(0, 1, 0).Format(layout))
}

// Prev período anterior.
func (id ID) Prev() ID {
	return ID(id.month().AddDate(0, -1, 0).Format(layout))
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
}

// ParseDate normaliza las representaciones de fecha que llegan de la hoja externa
// a una fecha de calendario UTC (sin hora).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("fecha vacía")
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q con formato no reconocido", s)
}

// DateOnly trunca a la fecha de calendario (conserva el día local del valor recibido).
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween días de calendario completos entre dos fechas (b - a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
