package repository

import (
	"context"
	"sort"
)

// Tx agrupa los repositorios atados a una misma transacción.
type Tx interface {
	// Lock toma bloqueos exclusivos por clave hasta el fin de la transacción.
	// Las claves se adquieren ordenadas para evitar interbloqueos.
	Lock(ctx context.Context, keys ...string) error

	Articles() ArticleRepository
	Movements() MovementRepository
	Loads() LoadRepository
	Closings() PeriodClosingRepository
	Overrides() BillingOverrideRepository
	Storage() StorageEntryRepository
	Pallets() PalletExpeditionRepository
}

// TxRunner ejecuta callbacks dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Snapshot ejecuta fn contra una vista consistente de solo lectura.
	Snapshot(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// LoadLock clave de exclusión de una carga.
func LoadLock(ref string) string { return "load:" + ref }

// PeriodLock clave de exclusión de un período (overrides, cierre y escrituras del libro).
func PeriodLock(period string) string { return "period:" + period }

// SortedKeys devuelve las claves ordenadas y sin repetir.
func SortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
