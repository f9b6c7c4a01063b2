package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

// Subscriber opens the live change feed of the order collection.
type Subscriber interface {
	Subscribe(onSnapshot func([]model.OrderRecord), onError func(error)) (cancel func())
}

// Roster owns the operator-managed table list.
type Roster interface {
	List(ctx context.Context) ([]model.Table, error)
	Add(ctx context.Context, id int) (model.Table, error)
	Remove(ctx context.Context, id int) error
}

// CartCache holds table-scoped carts that must be cleared when a table ends.
type CartCache interface {
	Clear(ctx context.Context, tableID int) error
}

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(n model.Notice)
}

// Options tune the engine.
type Options struct {
	TimeLayout       string
	WriteConcurrency int
	Now              func() time.Time
}

type snapshot struct {
	records []model.OrderRecord
	seq     uint64
}

// Engine reconciles the remote order feed with optimistic operator commands
// into per-table views. All projection state is guarded by mu; remote writes
// run outside of it.
type Engine struct {
	store    repository.OrderStore
	feed     Subscriber
	roster   Roster
	carts    CartCache
	notifier Notifier
	logger   *slog.Logger
	opts     Options

	mu      sync.RWMutex
	records []model.OrderRecord
	overlay *overlay
	pending *PendingSet
	tables  []model.Table
	views   map[int]model.TableView
	orders  *keyedMutex
	running bool
	stopped bool

	recvSeq   atomic.Uint64
	applied   atomic.Uint64
	mailboxMu sync.Mutex
	mailbox   chan snapshot
	done      chan struct{}
	applyWG   sync.WaitGroup
	writes    sync.WaitGroup

	cancelFeed func()
	stopOnce   sync.Once

	obsMu     sync.RWMutex
	observers map[uint64]func(int, model.TableView)
	nextObsID uint64

	// Publication tickets are taken under mu so observers see views in
	// rebuild order.
	pubNext    uint64
	pubMu      sync.Mutex
	pubCond    *sync.Cond
	pubServing uint64
}

// NewEngine constructs an engine. It does nothing until Start.
func NewEngine(store repository.OrderStore, feed Subscriber, roster Roster, carts CartCache, notifier Notifier, logger *slog.Logger, opts Options) *Engine {
	if opts.TimeLayout == "" {
		opts.TimeLayout = "15:04"
	}
	if opts.WriteConcurrency <= 0 {
		opts.WriteConcurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		store:     store,
		feed:      feed,
		roster:    roster,
		carts:     carts,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
		overlay:   newOverlay(),
		pending:   NewPendingSet(),
		views:     make(map[int]model.TableView),
		orders:    newKeyedMutex(),
		mailbox:   make(chan snapshot, 1),
		done:      make(chan struct{}),
		observers: make(map[uint64]func(int, model.TableView)),
	}
	e.pubCond = sync.NewCond(&e.pubMu)
	return e
}

// Start loads the roster and opens the change feed.
func (e *Engine) Start(ctx context.Context) error {
	tables, err := e.roster.List(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	e.mu.Lock()
	if e.running || e.stopped {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.running = true
	e.tables = tables
	e.unlockAndPublish(e.rebuildLocked())

	e.applyWG.Add(1)
	go e.applyLoop()

	e.cancelFeed = e.feed.Subscribe(e.deliver, e.feedFailed)
	e.logger.Info("reconciliation engine started", slog.Int("tables", len(tables)))
	return nil
}

// Stop detaches the feed exactly once and waits for in-flight remote writes
// until ctx ends. Writes still running after that are abandoned.
func (e *Engine) Stop(ctx context.Context) {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		wasRunning := e.running
		e.stopped = true
		e.running = false
		e.mu.Unlock()

		if !wasRunning {
			return
		}

		if e.cancelFeed != nil {
			e.cancelFeed()
		}
		close(e.done)
		e.applyWG.Wait()

		waited := make(chan struct{})
		go func() {
			e.writes.Wait()
			close(waited)
		}()

		select {
		case <-waited:
			e.logger.Info("reconciliation engine stopped")
		case <-ctx.Done():
			e.logger.Warn("abandoning in-flight remote writes", slog.String("error", ctx.Err().Error()))
		}
	})
}

// deliver hands a snapshot to the apply loop. An unapplied snapshot still
// sitting in the mailbox is superseded and dropped.
func (e *Engine) deliver(records []model.OrderRecord) {
	snap := snapshot{records: records, seq: e.recvSeq.Add(1)}

	e.mailboxMu.Lock()
	defer e.mailboxMu.Unlock()
	select {
	case dropped := <-e.mailbox:
		e.logger.Debug("superseded snapshot dropped", slog.Uint64("seq", dropped.seq))
	default:
	}
	e.mailbox <- snap
}

func (e *Engine) feedFailed(err error) {
	e.logger.Error("change feed terminated", slog.String("error", err.Error()))
	e.notify(model.NoticeError, 0, domainErrors.ErrFeedStopped.Error())
}

func (e *Engine) applyLoop() {
	defer e.applyWG.Done()
	for {
		select {
		case <-e.done:
			return
		case snap := <-e.mailbox:
			e.applySnapshot(snap)
		}
	}
}

func (e *Engine) applySnapshot(snap snapshot) {
	records := make([]model.OrderRecord, len(snap.records))
	copy(records, snap.records)
	sortByRecency(records)

	e.mu.Lock()
	e.records = records
	expired := e.overlay.expire(snap.seq)
	changed := e.rebuildLocked()
	e.unlockAndPublish(changed)
	e.applied.Store(snap.seq)

	e.logger.Debug("snapshot applied",
		slog.Uint64("seq", snap.seq),
		slog.Int("orders", len(records)),
		slog.Int("overlay_expired", expired),
		slog.Int("tables_changed", len(changed)),
	)
}

// mergedLocked returns the latest snapshot with optimistic overrides applied.
func (e *Engine) mergedLocked() []model.OrderRecord {
	return e.overlay.apply(e.records)
}

// rebuildLocked recomputes every view and returns those that changed.
func (e *Engine) rebuildLocked() []model.TableView {
	merged := e.mergedLocked()
	for _, id := range e.pending.Observe(groupByTable(merged)) {
		e.logger.Info("new order pending acknowledgement", slog.Int("table", id))
	}

	views := buildProjection(merged, e.tables, e.pending, e.opts.TimeLayout)
	var changed []model.TableView
	for id, view := range views {
		if old, ok := e.views[id]; !ok || !reflect.DeepEqual(old, view) {
			changed = append(changed, view)
		}
	}
	for id, old := range e.views {
		if _, ok := views[id]; !ok {
			changed = append(changed, model.TableView{Table: old.Table, Status: model.TableStatusEmpty})
		}
	}
	e.views = views
	sort.Slice(changed, func(i, j int) bool { return changed[i].Table.ID < changed[j].Table.ID })
	return changed
}

// OnProjectionChanged registers fn to be called with every table view that
// changes. Calls may come from the feed goroutine or a dispatching goroutine
// but never overlap, and arrive in the order the views were built. fn must not
// block or dispatch commands.
func (e *Engine) OnProjectionChanged(fn func(tableID int, view model.TableView)) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = fn
	e.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.obsMu.Lock()
			delete(e.observers, id)
			e.obsMu.Unlock()
		})
	}
}

// unlockAndPublish releases mu and hands changed to the observers once every
// earlier rebuild has been published.
func (e *Engine) unlockAndPublish(changed []model.TableView) {
	if len(changed) == 0 {
		e.mu.Unlock()
		return
	}
	ticket := e.pubNext
	e.pubNext++
	e.mu.Unlock()

	e.pubMu.Lock()
	for e.pubServing != ticket {
		e.pubCond.Wait()
	}
	e.pubMu.Unlock()

	e.publish(changed)

	e.pubMu.Lock()
	e.pubServing++
	e.pubCond.Broadcast()
	e.pubMu.Unlock()
}

func (e *Engine) publish(changed []model.TableView) {
	e.obsMu.RLock()
	observers := make([]func(int, model.TableView), 0, len(e.observers))
	for _, fn := range e.observers {
		observers = append(observers, fn)
	}
	e.obsMu.RUnlock()

	for _, view := range changed {
		for _, fn := range observers {
			fn(view.Table.ID, view)
		}
	}
}

func (e *Engine) notify(level model.NoticeLevel, tableID int, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(model.Notice{Level: level, TableID: tableID, Message: message, At: e.opts.Now()})
}

// GetTableView returns the current view of a table. Unknown tables are empty.
func (e *Engine) GetTableView(tableID int) model.TableView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if view, ok := e.views[tableID]; ok {
		return cloneView(view)
	}
	return model.TableView{Table: model.NewTable(tableID), Status: model.TableStatusEmpty}
}

// Tables returns the views of all roster tables in roster order.
func (e *Engine) Tables() []model.TableView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	views := make([]model.TableView, 0, len(e.tables))
	for _, table := range e.tables {
		if view, ok := e.views[table.ID]; ok {
			views = append(views, cloneView(view))
		}
	}
	return views
}

// Orders returns every known order, newest first, with optimistic overrides applied.
func (e *Engine) Orders() []model.OrderRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	merged := e.mergedLocked()
	out := make([]model.OrderRecord, len(merged))
	for i, r := range merged {
		out[i] = r.Clone()
	}
	return out
}

// AddTable registers a table on the roster.
func (e *Engine) AddTable(ctx context.Context, id int) (model.Table, error) {
	table, err := e.roster.Add(ctx, id)
	if err != nil {
		return model.Table{}, err
	}
	return table, e.ReloadTables(ctx)
}

// RemoveTable drops a table from the roster. Its orders are left untouched.
func (e *Engine) RemoveTable(ctx context.Context, id int) error {
	if err := e.roster.Remove(ctx, id); err != nil {
		return err
	}
	return e.ReloadTables(ctx)
}

// ReloadTables re-reads the roster, e.g. after a sibling process changed it.
func (e *Engine) ReloadTables(ctx context.Context) error {
	tables, err := e.roster.List(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	e.mu.Lock()
	e.tables = tables
	e.unlockAndPublish(e.rebuildLocked())
	return nil
}

// PlaceOrder validates and creates a new order document. The projection picks
// it up from the feed like any other remote change.
func (e *Engine) PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	e.mu.RLock()
	known := false
	for _, t := range e.tables {
		if t.ID == draft.TableNumber {
			known = true
			break
		}
	}
	e.mu.RUnlock()
	if !known {
		return nil, fmt.Errorf("table %d: %w", draft.TableNumber, domainErrors.ErrInvalidTable)
	}
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", domainErrors.ErrInvalidOrder)
	}
	for i, item := range draft.Items {
		if item.Name == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("item %d: %w", i, domainErrors.ErrInvalidOrder)
		}
	}
	return e.store.Create(ctx, draft)
}

func cloneView(v model.TableView) model.TableView {
	v.Lines = append([]model.TableOrderLine(nil), v.Lines...)
	return v
}
