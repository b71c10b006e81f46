package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/consumibles-api/internal/domain"
)

func TestMapError(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("upsert load: %w", &pgconn.PgError{Code: code})
	}
	assert.ErrorIs(t, mapError(wrap("40001")), domain.ErrReconciliationConflict)
	assert.ErrorIs(t, mapError(wrap("40P01")), domain.ErrReconciliationConflict)
	assert.ErrorIs(t, mapError(wrap("55P03")), domain.ErrReconciliationConflict)
	assert.ErrorIs(t, mapError(wrap("23505")), domain.ErrDuplicate)

	other := errors.New("conexión perdida")
	assert.Same(t, other, mapError(other))
	assert.Nil(t, mapError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", deref(nullable("x")))
	assert.Equal(t, "", deref(nil))
}
