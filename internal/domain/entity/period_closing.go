package entity

import "time"

// Estados de cierre de período.
const (
	PeriodOpen   = "OPEN"
	PeriodClosed = "CLOSED"
)

// PeriodClosing estado de cierre de un período. Ausente equivale a OPEN.
type PeriodClosing struct {
	Period     string
	Status     string
	ClosedBy   string
	ClosedAt   *time.Time
	ReopenedBy string
	ReopenedAt *time.Time
}

// IsClosed indica si el período está congelado.
func (p *PeriodClosing) IsClosed() bool {
	return p != nil && p.Status == PeriodClosed
}
