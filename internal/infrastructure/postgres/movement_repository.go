package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL. Cada escritura incrementa ledger_version.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, sku, kind, quantity, reason, period, load_ref, date, recorded_at, created_by`

const insertMovement = `
	INSERT INTO movements (` + movementColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *MovementRepo) insert(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.Exec(ctx, insertMovement,
		m.ID, m.SKU, m.Kind, m.Quantity, m.Reason, m.Period, m.LoadRef, m.Date, m.RecordedAt, nullable(m.CreatedBy))
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *MovementRepo) bumpVersion(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE ledger_version SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump ledger version: %w", err)
	}
	return nil
}

// Insert persiste un movimiento manual.
func (r *MovementRepo) Insert(ctx context.Context, m *entity.Movement) error {
	if err := r.insert(ctx, m); err != nil {
		return err
	}
	return r.bumpVersion(ctx)
}

// ReplaceForLoad borra los movimientos de la carga e inserta los nuevos dentro de la misma tx.
func (r *MovementRepo) ReplaceForLoad(ctx context.Context, loadRef string, movs []*entity.Movement) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM movements WHERE load_ref = $1`, loadRef); err != nil {
		return fmt.Errorf("delete load movements: %w", err)
	}
	for _, m := range movs {
		if err := r.insert(ctx, m); err != nil {
			return err
		}
	}
	return r.bumpVersion(ctx)
}

// List movimientos filtrados, ordenados por fecha y hora de registro.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE TRUE`
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.SKU != "" {
		add("sku = $%d", f.SKU)
	}
	if f.Period != "" {
		add("period = $%d", f.Period)
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.LoadRef != "" {
		add("load_ref = $%d", f.LoadRef)
	}
	if f.ManualOnly {
		query += " AND load_ref IS NULL"
	}
	if f.Until != nil {
		add("date <= $%d", *f.Until)
	}
	query += " ORDER BY date, recorded_at, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var createdBy *string
	if err := row.Scan(&m.ID, &m.SKU, &m.Kind, &m.Quantity, &m.Reason, &m.Period,
		&m.LoadRef, &m.Date, &m.RecordedAt, &createdBy); err != nil {
		return nil, err
	}
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

// Version versión actual del libro.
func (r *MovementRepo) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := r.q.QueryRow(ctx, `SELECT version FROM ledger_version WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("ledger version: %w", err)
	}
	return v, nil
}
