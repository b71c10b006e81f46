package detection_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/consumibles-api/internal/domain/detection"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/ledger"
)

func mk(ref, vehicle, equipment string, d time.Time) *entity.OperationalLoad {
	l := &entity.OperationalLoad{
		Ref: ref, VehicleID: vehicle, EquipmentID: equipment, Date: d,
		Consumptions: []entity.ConsumptionLine{{SKU: "TAPE-1", Quantity: decimal.NewFromInt(2)}},
	}
	l.Fingerprint = ledger.Fingerprint(l)
	l.FirstFingerprint = l.Fingerprint
	return l
}

func TestClassify_DuplicadosSimetricos(t *testing.T) {
	d := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	loads := []*entity.OperationalLoad{
		mk("A", "1234-ABC", "EQ1", d),
		mk("B", "1234 abc", "eq1", d),
		mk("C", "1234-ABC", "EQ1", d.AddDate(0, 0, 1)),
		mk("D", "9999-ZZZ", "EQ1", d),
	}
	flags := detection.Classify(loads)

	assert.True(t, flags["A"].Duplicate)
	assert.True(t, flags["B"].Duplicate)
	assert.Equal(t, []string{"B"}, flags["A"].DuplicateOf)
	assert.Equal(t, []string{"A"}, flags["B"].DuplicateOf)
	assert.False(t, flags["C"].Duplicate, "otra fecha no es duplicado")
	assert.False(t, flags["D"].Duplicate, "otro vehículo no es duplicado")
	assert.Equal(t, 2, detection.CountDuplicates(flags))

	for ref, f := range flags {
		for _, other := range f.DuplicateOf {
			assert.Contains(t, flags[other].DuplicateOf, ref, "simetría %s/%s", ref, other)
		}
	}
}

func TestClassify_SinVehiculoNoEsDuplicado(t *testing.T) {
	d := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	flags := detection.Classify([]*entity.OperationalLoad{mk("A", "", "EQ1", d), mk("B", "", "EQ1", d)})
	assert.False(t, flags["A"].Duplicate)
	assert.False(t, flags["B"].Duplicate)
}

func TestClassify_Modificada(t *testing.T) {
	d := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	l := mk("A", "V1", "E1", d)
	l.Consumptions[0].Quantity = decimal.NewFromInt(3)
	l.Fingerprint = ledger.Fingerprint(l)

	flags := detection.Classify([]*entity.OperationalLoad{l, mk("B", "V2", "E2", d)})
	assert.True(t, flags["A"].Modified)
	assert.False(t, flags["B"].Modified)
}
