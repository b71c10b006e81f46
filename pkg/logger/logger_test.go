package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("descartado")
	l.Named("sync").Warn().Str("ref", "C123").Msg("carga fallida")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "sync", entry["component"])
	assert.Equal(t, "C123", entry["ref"])
}

func TestOrNop(t *testing.T) {
	assert.NotPanics(t, func() { OrNop(nil).Info().Msg("nada") })
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
