// Package closing reglas del ciclo de vida OPEN/CLOSED de un período de facturación.
package closing

import (
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// Readiness situación del período frente al cierre.
type Readiness struct {
	Duplicates        int
	PendingBreakdowns []string // refs de cargas ADR sin desglose
}

// StatusOf estado efectivo: ausente equivale a OPEN.
func StatusOf(c *entity.PeriodClosing) string {
	if c == nil || c.Status == "" {
		return entity.PeriodOpen
	}
	return c.Status
}

// EnsureOpen falla con ClosedPeriodError si el período está CERRADO.
func EnsureOpen(c *entity.PeriodClosing, period string) error {
	if StatusOf(c) == entity.PeriodClosed {
		return &domain.ClosedPeriodError{Period: period}
	}
	return nil
}

// CanClose OPEN → CLOSED: sin duplicados y sin desgloses pendientes, salvo que un rol
// elevado pida omitir la comprobación ADR. Los duplicados bloquean siempre.
func CanClose(c *entity.PeriodClosing, period string, r Readiness, skipADR bool, actor entity.Actor) error {
	if StatusOf(c) != entity.PeriodOpen {
		return domain.ErrInvalidTransition
	}
	if r.Duplicates > 0 {
		return &domain.DuplicateBlockError{Period: period, Count: r.Duplicates}
	}
	if skipADR && !actor.IsElevated() {
		return domain.ErrForbidden
	}
	if len(r.PendingBreakdowns) > 0 && !skipADR {
		return &domain.PendingBreakdownError{Period: period, Refs: r.PendingBreakdowns}
	}
	return nil
}

// CanReopen CLOSED → OPEN, solo rol elevado.
func CanReopen(c *entity.PeriodClosing, actor entity.Actor) error {
	if !actor.IsElevated() {
		return domain.ErrForbidden
	}
	if StatusOf(c) != entity.PeriodClosed {
		return domain.ErrInvalidTransition
	}
	return nil
}
