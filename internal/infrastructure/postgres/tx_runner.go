package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con repos atados a la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción de escritura (READ COMMITTED). La serialización por carga y período la dan
// los advisory locks que pide cada caso de uso con Tx.Lock; tras obtenerlos cada sentencia
// ve el último estado confirmado.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Snapshot lectura consistente (REPEATABLE READ, solo lectura): todas las consultas de fn
// ven el mismo estado del libro.
func (r *TxRunner) Snapshot(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// pgTx implementa repository.Tx sobre una pgx.Tx.
type pgTx struct {
	tx pgx.Tx
}

// Lock toma advisory locks de transacción en orden determinista; se liberan al terminar la tx.
func (t *pgTx) Lock(ctx context.Context, keys ...string) error {
	for _, k := range repository.SortedKeys(keys) {
		if _, err := t.tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", k); err != nil {
			return fmt.Errorf("lock %s: %w", k, err)
		}
	}
	return nil
}

func (t *pgTx) Articles() repository.ArticleRepository { return NewArticleRepository(t.tx) }

func (t *pgTx) Movements() repository.MovementRepository { return NewMovementRepository(t.tx) }

func (t *pgTx) Loads() repository.LoadRepository { return NewLoadRepository(t.tx) }

func (t *pgTx) Closings() repository.PeriodClosingRepository {
	return NewPeriodClosingRepository(t.tx)
}

func (t *pgTx) Overrides() repository.BillingOverrideRepository {
	return NewBillingOverrideRepository(t.tx)
}

func (t *pgTx) Storage() repository.StorageEntryRepository { return NewStorageEntryRepository(t.tx) }

func (t *pgTx) Pallets() repository.PalletExpeditionRepository {
	return NewPalletExpeditionRepository(t.tx)
}
