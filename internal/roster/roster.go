package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AlwaysKim-03/orderland-sub000/internal/broadcast"
	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

// Key is the local persistence key of the table list.
const Key = "tables"

type tableDocument struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Roster persists the operator-managed table list and announces every save.
type Roster struct {
	mu     sync.Mutex
	store  repository.KeyValueStore
	bus    broadcast.Bus
	logger *slog.Logger
	now    func() time.Time
}

// New returns a roster over store. bus may be nil.
func New(store repository.KeyValueStore, bus broadcast.Bus, logger *slog.Logger) *Roster {
	return &Roster{store: store, bus: bus, logger: logger, now: time.Now}
}

// List returns the tables ordered by id. A missing list is empty.
func (r *Roster) List(ctx context.Context) ([]model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Add registers table id.
func (r *Roster) Add(ctx context.Context, id int) (model.Table, error) {
	if id < 1 {
		return model.Table{}, fmt.Errorf("table %d: %w", id, domainErrors.ErrInvalidTable)
	}

	r.mu.Lock()
	tables, err := r.load(ctx)
	if err != nil {
		r.mu.Unlock()
		return model.Table{}, err
	}
	for _, t := range tables {
		if t.ID == id {
			r.mu.Unlock()
			return model.Table{}, fmt.Errorf("table %d: %w", id, domainErrors.ErrAlreadyExists)
		}
	}
	table := model.NewTable(id)
	tables = append(tables, table)
	err = r.save(ctx, tables)
	r.mu.Unlock()
	if err != nil {
		return model.Table{}, err
	}

	r.announce(ctx, tables)
	return table, nil
}

// Remove drops table id.
func (r *Roster) Remove(ctx context.Context, id int) error {
	r.mu.Lock()
	tables, err := r.load(ctx)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	idx := -1
	for i, t := range tables {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("table %d: %w", id, domainErrors.ErrNotFound)
	}
	tables = append(tables[:idx], tables[idx+1:]...)
	err = r.save(ctx, tables)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.announce(ctx, tables)
	return nil
}

func (r *Roster) load(ctx context.Context) ([]model.Table, error) {
	raw, ok, err := r.store.Load(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []model.Table{}, nil
	}
	var docs []tableDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	tables := make([]model.Table, 0, len(docs))
	seen := make(map[int]struct{}, len(docs))
	for _, d := range docs {
		if d.ID < 1 {
			continue
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		tables = append(tables, model.NewTable(d.ID))
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func (r *Roster) save(ctx context.Context, tables []model.Table) error {
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	docs := make([]tableDocument, 0, len(tables))
	for _, t := range tables {
		docs = append(docs, tableDocument{ID: t.ID, Name: t.Name})
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	if err := r.store.Save(ctx, Key, raw); err != nil {
		return fmt.Errorf("save tables: %w", err)
	}
	return nil
}

func (r *Roster) announce(ctx context.Context, tables []model.Table) {
	if r.bus == nil {
		return
	}
	ids := make([]int, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	if err := r.bus.Publish(ctx, model.TablesChanged{TableIDs: ids, At: r.now()}); err != nil {
		r.logger.Warn("failed to broadcast table change", slog.String("error", err.Error()))
	}
}
