package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrClosedPeriod           = errors.New("el período está cerrado")
	ErrDuplicateBlock         = errors.New("existen cargas duplicadas en el período")
	ErrPendingBreakdown       = errors.New("existen cargas ADR sin desglose")
	ErrInvalidTransition      = errors.New("transición de estado no permitida")
	ErrReconciliationConflict = errors.New("conflicto de concurrencia al reconciliar")
)

// ValidationError campo obligatorio ausente o con formato inválido (ref, sku, fecha...).
// Se reporta por registro; nunca aborta un lote completo.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ClosedPeriodError escritura contra un período CERRADO.
type ClosedPeriodError struct {
	Period string
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("período %s cerrado: no admite modificaciones", e.Period)
}

func (e *ClosedPeriodError) Is(target error) bool { return target == ErrClosedPeriod }

// NotFoundError referencia a una carga, SKU o línea inexistente.
type NotFoundError struct {
	Kind string // load, article, line, storage
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound construye un NotFoundError.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// DuplicateBlockError intento de cierre con duplicados pendientes.
type DuplicateBlockError struct {
	Period string
	Count  int
}

func (e *DuplicateBlockError) Error() string {
	return fmt.Sprintf("período %s: %d cargas duplicadas impiden el cierre", e.Period, e.Count)
}

func (e *DuplicateBlockError) Is(target error) bool { return target == ErrDuplicateBlock }

// PendingBreakdownError cargas con pegatina ADR genérica sin desglose.
type PendingBreakdownError struct {
	Period string
	Refs   []string
}

func (e *PendingBreakdownError) Error() string {
	return fmt.Sprintf("período %s: cargas ADR sin desglose: %s", e.Period, strings.Join(e.Refs, ", "))
}

func (e *PendingBreakdownError) Is(target error) bool { return target == ErrPendingBreakdown }

// Code traduce un error a un código estable para respuestas HTTP y resultados de sincronización.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION"
	case errors.Is(err, ErrClosedPeriod):
		return "PERIOD_CLOSED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateBlock):
		return "DUPLICATES_PENDING"
	case errors.Is(err, ErrPendingBreakdown):
		return "ADR_PENDING"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrReconciliationConflict):
		return "CONFLICT"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "INTERNAL"
	}
}
