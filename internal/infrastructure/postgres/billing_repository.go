package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var (
	_ repository.BillingOverrideRepository  = (*BillingOverrideRepo)(nil)
	_ repository.StorageEntryRepository     = (*StorageEntryRepo)(nil)
	_ repository.PalletExpeditionRepository = (*PalletExpeditionRepo)(nil)
)

// BillingOverrideRepo ajustes de cantidad facturada por (período, línea).
type BillingOverrideRepo struct {
	q Querier
}

// NewBillingOverrideRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillingOverrideRepository(q Querier) *BillingOverrideRepo {
	return &BillingOverrideRepo{q: q}
}

// ListByPeriod ajustes vigentes del período.
func (r *BillingOverrideRepo) ListByPeriod(ctx context.Context, period string) ([]*entity.BillingOverride, error) {
	rows, err := r.q.Query(ctx, `
		SELECT period, line_key, quantity, set_by, set_at
		FROM billing_overrides WHERE period = $1 ORDER BY line_key`, period)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.BillingOverride, 0)
	for rows.Next() {
		var o entity.BillingOverride
		if err := rows.Scan(&o.Period, &o.LineKey, &o.Quantity, &o.SetBy, &o.SetAt); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// Upsert fija la cantidad facturada de una línea.
func (r *BillingOverrideRepo) Upsert(ctx context.Context, o *entity.BillingOverride) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO billing_overrides (period, line_key, quantity, set_by, set_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (period, line_key) DO UPDATE SET
			quantity = EXCLUDED.quantity, set_by = EXCLUDED.set_by, set_at = EXCLUDED.set_at`,
		o.Period, o.LineKey, o.Quantity, o.SetBy, o.SetAt)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// Delete elimina el ajuste (la línea vuelve a su cantidad real).
func (r *BillingOverrideRepo) Delete(ctx context.Context, period, lineKey string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM billing_overrides WHERE period = $1 AND line_key = $2`, period, lineKey); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// StorageEntryRepo contenedores en almacén.
type StorageEntryRepo struct {
	q Querier
}

// NewStorageEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStorageEntryRepository(q Querier) *StorageEntryRepo {
	return &StorageEntryRepo{q: q}
}

const storageColumns = `id, container_id, order_numbers, provider, entry_date, billing_start_date, exit_date,
	procedure, status, finalized_days, finalized_period, daily_rate, created_at`

func scanStorage(row pgx.Row) (*entity.StorageEntry, error) {
	var e entity.StorageEntry
	var procedure, finalizedPeriod *string
	if err := row.Scan(&e.ID, &e.ContainerID, &e.OrderNumbers, &e.Provider, &e.EntryDate, &e.BillingStartDate,
		&e.ExitDate, &procedure, &e.Status, &e.FinalizedDays, &finalizedPeriod, &e.DailyRate, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Procedure = deref(procedure)
	e.FinalizedPeriod = deref(finalizedPeriod)
	return &e, nil
}

// Create registra una entrada de almacenaje.
func (r *StorageEntryRepo) Create(ctx context.Context, e *entity.StorageEntry) error {
	orders := e.OrderNumbers
	if orders == nil {
		orders = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO storage_entries (`+storageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.ContainerID, orders, e.Provider, e.EntryDate, e.BillingStartDate, e.ExitDate,
		nullable(e.Procedure), e.Status, e.FinalizedDays, nullable(e.FinalizedPeriod), e.DailyRate, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert storage entry: %w", err)
	}
	return nil
}

// Get devuelve nil, nil si no existe.
func (r *StorageEntryRepo) Get(ctx context.Context, id string) (*entity.StorageEntry, error) {
	e, err := scanStorage(r.q.QueryRow(ctx, `SELECT `+storageColumns+` FROM storage_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get storage entry: %w", err)
	}
	return e, nil
}

// Update registra la salida (fecha, procedimiento, estado).
func (r *StorageEntryRepo) Update(ctx context.Context, e *entity.StorageEntry) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE storage_entries SET exit_date = $2, procedure = $3, status = $4, daily_rate = $5
		WHERE id = $1`,
		e.ID, e.ExitDate, nullable(e.Procedure), e.Status, e.DailyRate)
	if err != nil {
		return fmt.Errorf("update storage entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("storage", e.ID)
	}
	return nil
}

// ListOverlapping entradas que empiezan a facturar antes de end y no salieron antes de start.
func (r *StorageEntryRepo) ListOverlapping(ctx context.Context, start, end time.Time) ([]*entity.StorageEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+storageColumns+` FROM storage_entries
		WHERE billing_start_date <= $2 AND (exit_date IS NULL OR exit_date >= $1)
		ORDER BY id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list storage entries: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StorageEntry, 0)
	for rows.Next() {
		e, err := scanStorage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan storage entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Finalize sustituye el conjunto de días congelados del período.
func (r *StorageEntryRepo) Finalize(ctx context.Context, period string, days map[string]int) error {
	if _, err := r.q.Exec(ctx, `
		UPDATE storage_entries SET finalized_days = NULL, finalized_period = NULL
		WHERE finalized_period = $1`, period); err != nil {
		return fmt.Errorf("release finalized storage: %w", err)
	}
	for id, d := range days {
		if _, err := r.q.Exec(ctx, `
			UPDATE storage_entries SET finalized_days = $2, finalized_period = $3 WHERE id = $1`,
			id, d, period); err != nil {
			return fmt.Errorf("finalize storage %s: %w", id, err)
		}
	}
	return nil
}

// PalletExpeditionRepo expediciones con su consumo de palés.
type PalletExpeditionRepo struct {
	q Querier
}

// NewPalletExpeditionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPalletExpeditionRepository(q Querier) *PalletExpeditionRepo {
	return &PalletExpeditionRepo{q: q}
}

const palletColumns = `id, reference, date, period, resulting_pallets, created_at, created_by`

func scanPallet(row pgx.Row) (*entity.PalletExpedition, error) {
	var x entity.PalletExpedition
	var createdBy *string
	if err := row.Scan(&x.ID, &x.Reference, &x.Date, &x.Period, &x.ResultingPallets, &x.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	x.CreatedBy = deref(createdBy)
	return &x, nil
}

// Create registra una expedición.
func (r *PalletExpeditionRepo) Create(ctx context.Context, x *entity.PalletExpedition) error {
	_, err := r.q.Exec(ctx, `INSERT INTO pallet_expeditions (`+palletColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		x.ID, x.Reference, x.Date, x.Period, x.ResultingPallets, x.CreatedAt, nullable(x.CreatedBy))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert pallet expedition: %w", err)
	}
	return nil
}

// Get devuelve nil, nil si no existe.
func (r *PalletExpeditionRepo) Get(ctx context.Context, id string) (*entity.PalletExpedition, error) {
	x, err := scanPallet(r.q.QueryRow(ctx, `SELECT `+palletColumns+` FROM pallet_expeditions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pallet expedition: %w", err)
	}
	return x, nil
}

// ListByPeriod expediciones del período.
func (r *PalletExpeditionRepo) ListByPeriod(ctx context.Context, period string) ([]*entity.PalletExpedition, error) {
	rows, err := r.q.Query(ctx, `SELECT `+palletColumns+` FROM pallet_expeditions WHERE period = $1 ORDER BY id`, period)
	if err != nil {
		return nil, fmt.Errorf("list pallet expeditions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.PalletExpedition, 0)
	for rows.Next() {
		x, err := scanPallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pallet expedition: %w", err)
		}
		list = append(list, x)
	}
	return list, rows.Err()
}
