// Package memory implementa los puertos de repositorio en memoria. Cada transacción trabaja
// sobre una copia del estado que solo se publica al confirmar, así un error deshace todo.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type state struct {
	articles  map[string]*entity.Article
	movements []*entity.Movement
	version   int64
	loads     map[string]*entity.OperationalLoad
	closings  map[string]*entity.PeriodClosing
	overrides map[string]*entity.BillingOverride // period|key
	storage   map[string]*entity.StorageEntry
	pallets   map[string]*entity.PalletExpedition
}

func newState() *state {
	return &state{
		articles:  map[string]*entity.Article{},
		loads:     map[string]*entity.OperationalLoad{},
		closings:  map[string]*entity.PeriodClosing{},
		overrides: map[string]*entity.BillingOverride{},
		storage:   map[string]*entity.StorageEntry{},
		pallets:   map[string]*entity.PalletExpedition{},
	}
}

// Los valores guardados nunca se modifican en sitio, basta con copiar los contenedores.
func (s *state) clone() *state {
	c := &state{
		articles:  make(map[string]*entity.Article, len(s.articles)),
		movements: append([]*entity.Movement(nil), s.movements...),
		version:   s.version,
		loads:     make(map[string]*entity.OperationalLoad, len(s.loads)),
		closings:  make(map[string]*entity.PeriodClosing, len(s.closings)),
		overrides: make(map[string]*entity.BillingOverride, len(s.overrides)),
		storage:   make(map[string]*entity.StorageEntry, len(s.storage)),
		pallets:   make(map[string]*entity.PalletExpedition, len(s.pallets)),
	}
	for k, v := range s.articles {
		c.articles[k] = v
	}
	for k, v := range s.loads {
		c.loads[k] = v
	}
	for k, v := range s.closings {
		c.closings[k] = v
	}
	for k, v := range s.overrides {
		c.overrides[k] = v
	}
	for k, v := range s.storage {
		c.storage[k] = v
	}
	for k, v := range s.pallets {
		c.pallets[k] = v
	}
	return c
}

// Store TxRunner en memoria. Las transacciones se serializan con un único mutex,
// lo que cubre cualquier combinación de claves de Lock.
type Store struct {
	mu sync.Mutex
	st *state

	// ReplaceHook, si no es nil, se invoca antes de cada ReplaceForLoad; un error aborta la transacción.
	ReplaceHook func(loadRef string) error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// PutArticles carga el catálogo (maestro externo).
func (s *Store) PutArticles(articles ...*entity.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		cp := *a
		s.st.articles[a.SKU] = &cp
	}
}

// Run ejecuta fn sobre una copia del estado y la publica si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &tx{st: work, hook: s.ReplaceHook}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Snapshot ejecuta fn sobre una copia que se descarta.
func (s *Store) Snapshot(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &tx{st: s.st.clone()})
}

type tx struct {
	st   *state
	hook func(string) error
}

func (t *tx) Lock(ctx context.Context, keys ...string) error { return ctx.Err() }

func (t *tx) Articles() repository.ArticleRepository          { return articles{t} }
func (t *tx) Movements() repository.MovementRepository        { return movements{t} }
func (t *tx) Loads() repository.LoadRepository                { return loads{t} }
func (t *tx) Closings() repository.PeriodClosingRepository    { return closings{t} }
func (t *tx) Overrides() repository.BillingOverrideRepository { return overrides{t} }
func (t *tx) Storage() repository.StorageEntryRepository      { return storage{t} }
func (t *tx) Pallets() repository.PalletExpeditionRepository  { return pallets{t} }

type articles struct{ *tx }

func (r articles) GetBySKU(_ context.Context, sku string) (*entity.Article, error) {
	a, ok := r.st.articles[sku]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r articles) List(_ context.Context, activeOnly bool) ([]*entity.Article, error) {
	out := make([]*entity.Article, 0, len(r.st.articles))
	for _, a := range r.st.articles {
		if activeOnly && !a.Active {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

type movements struct{ *tx }

func (r movements) Insert(_ context.Context, m *entity.Movement) error {
	cp := *m
	r.st.movements = append(r.st.movements, &cp)
	r.st.version++
	return nil
}

func (r movements) ReplaceForLoad(_ context.Context, loadRef string, movs []*entity.Movement) error {
	if r.hook != nil {
		if err := r.hook(loadRef); err != nil {
			return err
		}
	}
	kept := r.st.movements[:0:0]
	for _, m := range r.st.movements {
		if m.LoadRef == nil || *m.LoadRef != loadRef {
			kept = append(kept, m)
		}
	}
	for _, m := range movs {
		cp := *m
		kept = append(kept, &cp)
	}
	r.st.movements = kept
	r.st.version++
	return nil
}

func (r movements) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.st.movements {
		switch {
		case f.SKU != "" && m.SKU != f.SKU,
			f.Period != "" && m.Period != f.Period,
			f.Kind != "" && m.Kind != f.Kind,
			f.LoadRef != "" && (m.LoadRef == nil || *m.LoadRef != f.LoadRef),
			f.ManualOnly && m.LoadRef != nil,
			f.Until != nil && m.Date.After(*f.Until):
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r movements) Version(context.Context) (int64, error) { return r.st.version, nil }

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type loads struct{ *tx }

func (r loads) Get(_ context.Context, ref string) (*entity.OperationalLoad, error) {
	l, ok := r.st.loads[ref]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r loads) Upsert(_ context.Context, l *entity.OperationalLoad) error {
	cp := *l
	r.st.loads[l.Ref] = &cp
	return nil
}

func (r loads) List(_ context.Context, f repository.LoadFilter) ([]*entity.OperationalLoad, error) {
	out := make([]*entity.OperationalLoad, 0)
	for _, l := range r.st.loads {
		if f.Period != "" && l.Period != f.Period {
			continue
		}
		if f.VehicleID != "" && l.VehicleID != f.VehicleID {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Ref < out[j].Ref
	})
	return out, nil
}

type closings struct{ *tx }

func (r closings) Get(_ context.Context, p string) (*entity.PeriodClosing, error) {
	c, ok := r.st.closings[p]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r closings) Save(_ context.Context, c *entity.PeriodClosing) error {
	cp := *c
	r.st.closings[c.Period] = &cp
	return nil
}

type overrides struct{ *tx }

func overrideKey(p, key string) string { return p + "|" + key }

func (r overrides) ListByPeriod(_ context.Context, p string) ([]*entity.BillingOverride, error) {
	out := make([]*entity.BillingOverride, 0)
	for _, o := range r.st.overrides {
		if o.Period == p {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineKey < out[j].LineKey })
	return out, nil
}

func (r overrides) Upsert(_ context.Context, o *entity.BillingOverride) error {
	cp := *o
	r.st.overrides[overrideKey(o.Period, o.LineKey)] = &cp
	return nil
}

func (r overrides) Delete(_ context.Context, p, key string) error {
	delete(r.st.overrides, overrideKey(p, key))
	return nil
}

type storage struct{ *tx }

func (r storage) Create(_ context.Context, e *entity.StorageEntry) error {
	cp := *e
	r.st.storage[e.ID] = &cp
	return nil
}

func (r storage) Get(_ context.Context, id string) (*entity.StorageEntry, error) {
	e, ok := r.st.storage[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r storage) Update(ctx context.Context, e *entity.StorageEntry) error {
	return r.Create(ctx, e)
}

func (r storage) ListOverlapping(_ context.Context, start, end time.Time) ([]*entity.StorageEntry, error) {
	out := make([]*entity.StorageEntry, 0)
	for _, e := range r.st.storage {
		if e.BillingStartDate.After(end) {
			continue
		}
		if e.ExitDate != nil && e.ExitDate.Before(start) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r storage) Finalize(_ context.Context, p string, days map[string]int) error {
	for id, e := range r.st.storage {
		d, frozen := days[id]
		if !frozen && e.FinalizedPeriod != p {
			continue
		}
		cp := *e
		if frozen {
			cp.FinalizedDays = &d
			cp.FinalizedPeriod = p
		} else {
			cp.FinalizedDays = nil
			cp.FinalizedPeriod = ""
		}
		r.st.storage[id] = &cp
	}
	return nil
}

type pallets struct{ *tx }

func (r pallets) Create(_ context.Context, x *entity.PalletExpedition) error {
	cp := *x
	r.st.pallets[x.ID] = &cp
	return nil
}

func (r pallets) Get(_ context.Context, id string) (*entity.PalletExpedition, error) {
	x, ok := r.st.pallets[id]
	if !ok {
		return nil, nil
	}
	cp := *x
	return &cp, nil
}

func (r pallets) ListByPeriod(_ context.Context, p string) ([]*entity.PalletExpedition, error) {
	out := make([]*entity.PalletExpedition, 0)
	for _, x := range r.st.pallets {
		if x.Period == p {
			cp := *x
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
