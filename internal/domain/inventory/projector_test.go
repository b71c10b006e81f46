package inventory_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/inventory"
)

var asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func mov(kind string, q float64, daysAgo int) *entity.Movement {
	return &entity.Movement{SKU: "TAPE-1", Kind: kind, Quantity: d(q), Date: asOf.AddDate(0, 0, -daysAgo)}
}

func article() *entity.Article {
	return &entity.Article{SKU: "TAPE-1", Name: "Cinta", InitialStock: d(10), SafetyStock: d(20), LeadTimeDays: 14}
}

func TestProject_StockYReposicion(t *testing.T) {
	movs := []*entity.Movement{
		mov(entity.MovementInbound, 30, 40),
		mov(entity.MovementOutbound, 15, 45), // fuera de la ventana de 30 días
		mov(entity.MovementOutbound, 12, 10),
		mov(entity.MovementOutbound, 6, 1),
	}
	st := inventory.NewProjector(0).Project(article(), movs, asOf)

	assert.True(t, st.Stock.Equal(d(7)), "10 + 30 - 33 = 7, obtenido %s", st.Stock)
	assert.Equal(t, inventory.StatusReorder, st.Status)
	// 18 / 30 * 7 = 4.2
	assert.True(t, st.WeeklyVelocity.Equal(d(4.2)), st.WeeklyVelocity.String())
	// 20 + 4.2 * 14 / 7 = 28.4
	assert.True(t, st.TargetStock.Equal(d(28.4)), st.TargetStock.String())
	// ceil(28.4 - 7) = 22
	assert.True(t, st.SuggestedReorder.Equal(d(22)), st.SuggestedReorder.String())
}

func TestProject_IgnoraMovimientosPosterioresYDeOtroSKU(t *testing.T) {
	future := &entity.Movement{SKU: "TAPE-1", Kind: entity.MovementOutbound, Quantity: d(100), Date: asOf.AddDate(0, 0, 1)}
	other := &entity.Movement{SKU: "FILM-1", Kind: entity.MovementOutbound, Quantity: d(100), Date: asOf}
	st := inventory.NewProjector(30).Project(article(), []*entity.Movement{future, other}, asOf)
	assert.True(t, st.Stock.Equal(d(10)))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, inventory.StatusNoStock, inventory.Classify(d(0), d(5)))
	assert.Equal(t, inventory.StatusNoStock, inventory.Classify(d(-3), d(5)))
	assert.Equal(t, inventory.StatusReorder, inventory.Classify(d(5), d(5)))
	assert.Equal(t, inventory.StatusInStock, inventory.Classify(d(6), d(5)))
}

func TestSuggestedReorder_CeroSiStockAlcanzaSeguridad(t *testing.T) {
	assert.True(t, inventory.SuggestedReorder(d(20), d(20), d(50)).IsZero())
	assert.True(t, inventory.SuggestedReorder(d(25), d(20), d(50)).IsZero())
	assert.True(t, inventory.SuggestedReorder(d(19), d(20), d(10)).IsZero(), "nunca negativo")
}

func TestGuardasSinNaN(t *testing.T) {
	assert.True(t, inventory.WeeklyVelocity(d(10), 0).IsZero())
	assert.True(t, inventory.TargetStock(d(5), d(3), 0).Equal(d(5)))

	a := article()
	a.LeadTimeDays = 0
	st := inventory.NewProjector(30).Project(a, nil, asOf)
	assert.True(t, st.TargetStock.Equal(a.SafetyStock))
	assert.True(t, st.WeeklyVelocity.IsZero())
}

// stock = inicial + Σentradas − Σsalidas en cualquier orden de inserción.
func TestProject_InvarianteDeStockEnCualquierOrden(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	movs := make([]*entity.Movement, 0, 50)
	want := d(10)
	for i := 0; i < 50; i++ {
		q := float64(r.Intn(20))
		if r.Intn(2) == 0 {
			movs = append(movs, mov(entity.MovementInbound, q, r.Intn(60)))
			want = want.Add(d(q))
		} else {
			movs = append(movs, mov(entity.MovementOutbound, q, r.Intn(60)))
			want = want.Sub(d(q))
		}
	}
	p := inventory.NewProjector(30)
	base := p.Project(article(), movs, asOf)
	require.True(t, base.Stock.Equal(want))
	for i := 0; i < 5; i++ {
		r.Shuffle(len(movs), func(a, b int) { movs[a], movs[b] = movs[b], movs[a] })
		assert.True(t, p.Project(article(), movs, asOf).Stock.Equal(want))
	}
}
