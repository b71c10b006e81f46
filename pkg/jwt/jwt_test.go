package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	tok, err := Generate("s3cret", "u1", "Ana", "supervisor", "consumibles", 5)
	require.NoError(t, err)

	c, err := Parse("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "supervisor", c.Role)
	assert.Equal(t, "consumibles", c.Issuer)
}

func TestParse_Rechaza(t *testing.T) {
	tok, err := Generate("s3cret", "u1", "", "admin", "x", 5)
	require.NoError(t, err)

	_, err = Parse("otro", tok)
	assert.Error(t, err, "firma incorrecta")

	expired, err := Generate("s3cret", "u1", "", "admin", "x", -1)
	require.NoError(t, err)
	_, err = Parse("s3cret", expired)
	assert.Error(t, err, "expirado")

	_, err = Generate("", "u1", "", "admin", "x", 5)
	assert.Error(t, err)
}
