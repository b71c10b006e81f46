package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/catalog"
)

func TestRead_PuntoYComaYComaDecimal(t *testing.T) {
	in := "SKU;Name;Category;Safety_Stock;Sale_Price;Lead_Time_Days;Active\n" +
		"TAPE-1;Cinta;;10;1,25;7;si\n" +
		"ADR-GEN;Pegatina ADR;adr_aggregate;0;0;;\n" +
		"OLD-1;Obsoleto;GENERAL;0;0;;no\n" +
		";vacía;;;;;\n"

	arts, err := catalog.Read(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, arts, 3)

	assert.Equal(t, "TAPE-1", arts[0].SKU)
	assert.Equal(t, entity.CategoryGeneral, arts[0].Category)
	assert.True(t, arts[0].SalePrice.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, arts[0].SafetyStock.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 7, arts[0].LeadTimeDays)
	assert.True(t, arts[0].Active)

	assert.Equal(t, entity.CategoryADRAggregate, arts[1].Category)
	assert.False(t, arts[2].Active)
}

func TestRead_Latin1(t *testing.T) {
	utf8 := "sku,name\nADR-3,Pegatina clase 3 inflamable (señal)\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8)
	require.NoError(t, err)

	arts, err := catalog.Read(bytes.NewReader([]byte(latin1)), "iso-8859-1")
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, "Pegatina clase 3 inflamable (señal)", arts[0].Name)
}

func TestRead_SKURepetidoSustituye(t *testing.T) {
	arts, err := catalog.Read(strings.NewReader("sku,name\nA,uno\nB,dos\nA,tres\n"), "")
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "tres", arts[0].Name)
}

func TestRead_Errores(t *testing.T) {
	cases := map[string]string{
		"sin columna sku":      "name,unit\nCinta,ud\n",
		"categoría":            "sku,category\nA,PELIGROSA\n",
		"precio negativo":      "sku,sale_price\nA,-1\n",
		"plazo no numérico":    "sku,lead_time_days\nA,una semana\n",
		"activo no reconocido": "sku,active\nA,quizá\n",
	}
	for name, in := range cases {
		_, err := catalog.Read(strings.NewReader(in), "")
		assert.Error(t, err, name)
	}
	_, err := catalog.Read(strings.NewReader(""), "")
	assert.Error(t, err)
}
