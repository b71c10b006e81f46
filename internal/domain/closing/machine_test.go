package closing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/closing"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

var (
	admin    = entity.Actor{ID: "u1", Role: entity.RoleAdmin}
	operador = entity.Actor{ID: "u2", Role: entity.RoleOperador}
	closed   = &entity.PeriodClosing{Period: "2026-01", Status: entity.PeriodClosed}
)

func TestCanClose_DuplicadosBloqueanAunConOmision(t *testing.T) {
	err := closing.CanClose(nil, "2026-01", closing.Readiness{Duplicates: 2}, true, admin)
	assert.ErrorIs(t, err, domain.ErrDuplicateBlock)

	var dup *domain.DuplicateBlockError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, 2, dup.Count)
}

func TestCanClose_DesglosesPendientes(t *testing.T) {
	r := closing.Readiness{PendingBreakdowns: []string{"C1"}}
	assert.ErrorIs(t, closing.CanClose(nil, "2026-01", r, false, admin), domain.ErrPendingBreakdown)
	assert.NoError(t, closing.CanClose(nil, "2026-01", r, true, admin), "rol elevado puede omitir")
	assert.ErrorIs(t, closing.CanClose(nil, "2026-01", r, true, operador), domain.ErrForbidden)
}

func TestCanClose_SinPendientes(t *testing.T) {
	assert.NoError(t, closing.CanClose(nil, "2026-01", closing.Readiness{}, false, operador))
	open := &entity.PeriodClosing{Status: entity.PeriodOpen}
	assert.NoError(t, closing.CanClose(open, "2026-01", closing.Readiness{}, false, operador))
	assert.ErrorIs(t, closing.CanClose(closed, "2026-01", closing.Readiness{}, false, admin), domain.ErrInvalidTransition)
}

func TestCanReopen(t *testing.T) {
	assert.NoError(t, closing.CanReopen(closed, admin))
	assert.ErrorIs(t, closing.CanReopen(closed, operador), domain.ErrForbidden)
	assert.ErrorIs(t, closing.CanReopen(nil, admin), domain.ErrInvalidTransition)
}

func TestEnsureOpen(t *testing.T) {
	assert.NoError(t, closing.EnsureOpen(nil, "2026-01"))
	err := closing.EnsureOpen(closed, "2026-01")
	assert.ErrorIs(t, err, domain.ErrClosedPeriod)
	assert.Equal(t, "PERIOD_CLOSED", domain.Code(err))
}

func TestAssess(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	cat := entity.NewCatalog([]*entity.Article{{SKU: "ADR-GEN", Category: entity.CategoryADRAggregate}})
	loads := []*entity.OperationalLoad{
		{Ref: "C1", Date: day, VehicleID: "1234-ABC", EquipmentID: "EQ1"},
		{Ref: "C2", Date: day, VehicleID: "1234 abc", EquipmentID: "eq1"},
		{Ref: "C3", Date: day, VehicleID: "9999", EquipmentID: "EQ1",
			Consumptions: []entity.ConsumptionLine{{SKU: "ADR-GEN", Quantity: decimal.NewFromInt(2)}}},
	}

	r := closing.Assess(loads, cat)
	assert.Equal(t, 2, r.Duplicates)
	assert.Equal(t, []string{"C3"}, r.PendingBreakdowns)
	assert.False(t, r.Ready())

	assert.True(t, closing.Assess(nil, cat).Ready())
}
