package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.LoadRepository = (*LoadRepo)(nil)

// LoadRepo cargas operativas sobre PostgreSQL. Consumos y desglose ADR se guardan como JSONB.
type LoadRepo struct {
	q Querier
}

// NewLoadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoadRepository(q Querier) *LoadRepo {
	return &LoadRepo{q: q}
}

type lineJSON struct {
	SKU      string          `json:"sku"`
	Quantity decimal.Decimal `json:"quantity"`
	Kind     string          `json:"kind,omitempty"`
}

func encodeLines(lines []entity.ConsumptionLine) ([]byte, error) {
	if lines == nil {
		return nil, nil
	}
	out := make([]lineJSON, len(lines))
	for i, l := range lines {
		out[i] = lineJSON{SKU: l.SKU, Quantity: l.Quantity, Kind: l.Kind}
	}
	return json.Marshal(out)
}

func decodeLines(raw []byte) ([]entity.ConsumptionLine, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var in []lineJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make([]entity.ConsumptionLine, len(in))
	for i, l := range in {
		out[i] = entity.ConsumptionLine{SKU: l.SKU, Quantity: l.Quantity, Kind: l.Kind}
	}
	return out, nil
}

const loadColumns = `ref, date, vehicle_id, equipment_id, consumptions, adr_breakdown, period,
	fingerprint, first_fingerprint, first_synced_at, last_synced_at, breakdown_by, breakdown_at`

func scanLoad(row pgx.Row) (*entity.OperationalLoad, error) {
	var l entity.OperationalLoad
	var consumptions, breakdown []byte
	var breakdownBy *string
	var breakdownAt *time.Time
	if err := row.Scan(&l.Ref, &l.Date, &l.VehicleID, &l.EquipmentID, &consumptions, &breakdown, &l.Period,
		&l.Fingerprint, &l.FirstFingerprint, &l.FirstSyncedAt, &l.LastSyncedAt, &breakdownBy, &breakdownAt); err != nil {
		return nil, err
	}
	var err error
	if l.Consumptions, err = decodeLines(consumptions); err != nil {
		return nil, fmt.Errorf("decode consumptions %s: %w", l.Ref, err)
	}
	if l.ADRBreakdown, err = decodeLines(breakdown); err != nil {
		return nil, fmt.Errorf("decode adr_breakdown %s: %w", l.Ref, err)
	}
	l.BreakdownBy = deref(breakdownBy)
	l.BreakdownAt = breakdownAt
	return &l, nil
}

// Get obtiene una carga por referencia; nil, nil si no existe.
func (r *LoadRepo) Get(ctx context.Context, ref string) (*entity.OperationalLoad, error) {
	l, err := scanLoad(r.q.QueryRow(ctx, `SELECT `+loadColumns+` FROM operational_loads WHERE ref = $1`, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get load: %w", err)
	}
	return l, nil
}

// Upsert crea o sustituye la carga completa.
func (r *LoadRepo) Upsert(ctx context.Context, l *entity.OperationalLoad) error {
	consumptions, err := encodeLines(l.Consumptions)
	if err != nil {
		return fmt.Errorf("encode consumptions: %w", err)
	}
	if consumptions == nil {
		consumptions = []byte("[]")
	}
	breakdown, err := encodeLines(l.ADRBreakdown)
	if err != nil {
		return fmt.Errorf("encode adr_breakdown: %w", err)
	}
	query := `
		INSERT INTO operational_loads (` + loadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (ref) DO UPDATE SET
			date = EXCLUDED.date,
			vehicle_id = EXCLUDED.vehicle_id,
			equipment_id = EXCLUDED.equipment_id,
			consumptions = EXCLUDED.consumptions,
			adr_breakdown = EXCLUDED.adr_breakdown,
			period = EXCLUDED.period,
			fingerprint = EXCLUDED.fingerprint,
			first_fingerprint = EXCLUDED.first_fingerprint,
			first_synced_at = EXCLUDED.first_synced_at,
			last_synced_at = EXCLUDED.last_synced_at,
			breakdown_by = EXCLUDED.breakdown_by,
			breakdown_at = EXCLUDED.breakdown_at`
	_, err = r.q.Exec(ctx, query,
		l.Ref, l.Date, l.VehicleID, l.EquipmentID, consumptions, breakdown, l.Period,
		l.Fingerprint, l.FirstFingerprint, l.FirstSyncedAt, l.LastSyncedAt, nullable(l.BreakdownBy), l.BreakdownAt)
	if err != nil {
		return fmt.Errorf("upsert load: %w", err)
	}
	return nil
}

// List cargas filtradas por período y vehículo, ordenadas por fecha y referencia.
func (r *LoadRepo) List(ctx context.Context, f repository.LoadFilter) ([]*entity.OperationalLoad, error) {
	query := `SELECT ` + loadColumns + ` FROM operational_loads WHERE TRUE`
	args := []any{}
	if f.Period != "" {
		args = append(args, f.Period)
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	if f.VehicleID != "" {
		args = append(args, f.VehicleID)
		query += fmt.Sprintf(" AND vehicle_id = $%d", len(args))
	}
	query += " ORDER BY date, ref"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.OperationalLoad, 0)
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
