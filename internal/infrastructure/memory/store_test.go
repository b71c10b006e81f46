package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/memory"
)

func day(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }

func mov(ref *string, sku string, d int) *entity.Movement {
	return &entity.Movement{
		SKU: sku, Kind: entity.MovementOutbound, Quantity: decimal.NewFromInt(1),
		Period: "2026-01", LoadRef: ref, Date: day(d), RecordedAt: day(d),
	}
}

func list(t *testing.T, s *memory.Store, f repository.MovementFilter) []*entity.Movement {
	t.Helper()
	var out []*entity.Movement
	require.NoError(t, s.Snapshot(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Movements().List(ctx, f)
		return err
	}))
	return out
}

func TestRun_ErrorDeshaceTodo(t *testing.T) {
	s := memory.NewStore()
	boom := errors.New("boom")
	err := s.Run(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.Movements().Insert(ctx, mov(nil, "TAPE-1", 3)))
		require.NoError(t, tx.Loads().Upsert(ctx, &entity.OperationalLoad{Ref: "C1", Period: "2026-01"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, list(t, s, repository.MovementFilter{}))

	require.NoError(t, s.Snapshot(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		l, err := tx.Loads().Get(ctx, "C1")
		assert.Nil(t, l)
		v, _ := tx.Movements().Version(ctx)
		assert.Zero(t, v)
		return err
	}))
}

func TestReplaceForLoad_SoloAfectaASuCarga(t *testing.T) {
	s := memory.NewStore()
	c1, c2 := "C1", "C2"
	ctx := context.Background()
	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Movements().Insert(ctx, mov(nil, "TAPE-1", 10)); err != nil {
			return err
		}
		if err := tx.Movements().ReplaceForLoad(ctx, c1, []*entity.Movement{mov(&c1, "TAPE-1", 5), mov(&c1, "FILM-1", 5)}); err != nil {
			return err
		}
		return tx.Movements().ReplaceForLoad(ctx, c2, []*entity.Movement{mov(&c2, "TAPE-1", 1)})
	}))
	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Movements().ReplaceForLoad(ctx, c1, []*entity.Movement{mov(&c1, "ADR-3", 7)})
	}))

	all := list(t, s, repository.MovementFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []time.Time{day(1), day(7), day(10)}, []time.Time{all[0].Date, all[1].Date, all[2].Date}, "orden por fecha")

	own := list(t, s, repository.MovementFilter{LoadRef: c1})
	require.Len(t, own, 1)
	assert.Equal(t, "ADR-3", own[0].SKU)
	assert.Len(t, list(t, s, repository.MovementFilter{ManualOnly: true}), 1)

	until := day(6)
	assert.Len(t, list(t, s, repository.MovementFilter{Until: &until}), 1)
	assert.Len(t, list(t, s, repository.MovementFilter{Limit: 1, Offset: 2}), 1)
	assert.Empty(t, list(t, s, repository.MovementFilter{Offset: 5}))
}

func TestFinalize_SustituyeElConjuntoCongelado(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	get := func(id string) *entity.StorageEntry {
		var e *entity.StorageEntry
		require.NoError(t, s.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			e, err = tx.Storage().Get(ctx, id)
			return err
		}))
		return e
	}

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, id := range []string{"a", "b"} {
			if err := tx.Storage().Create(ctx, &entity.StorageEntry{ID: id, BillingStartDate: day(1)}); err != nil {
				return err
			}
		}
		return tx.Storage().Finalize(ctx, "2026-01", map[string]int{"a": 3, "b": 4})
	}))
	require.NotNil(t, get("a").FinalizedDays)
	assert.Equal(t, 3, *get("a").FinalizedDays)
	assert.Equal(t, 4, *get("b").FinalizedDays)

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Storage().Finalize(ctx, "2026-01", map[string]int{"b": 9})
	}))
	assert.Nil(t, get("a").FinalizedDays)
	assert.Empty(t, get("a").FinalizedPeriod)
	assert.Equal(t, 9, *get("b").FinalizedDays)

	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Storage().Finalize(ctx, "2026-02", nil)
	}))
	assert.Equal(t, 9, *get("b").FinalizedDays, "otro período no toca los congelados")
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Run(ctx, func(context.Context, repository.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
