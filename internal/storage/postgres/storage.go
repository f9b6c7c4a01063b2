package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

const notifyChannel = "orders_changed"

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// notificationWaiter is a connection subscribed to the change channel.
type notificationWaiter interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

type listenFunc func(ctx context.Context, channel string) (notificationWaiter, error)

// Storage acts as the order store backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	listen listenFunc
	logger *slog.Logger
}

type orderStore struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	storage.listen = storage.listenPooled
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Orders returns the order store view of the storage.
func (s *Storage) Orders() repository.OrderStore {
	return &orderStore{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            table_number INTEGER NOT NULL,
            items JSONB NOT NULL DEFAULT '[]',
            status TEXT NOT NULL,
            total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            completed_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_table ON orders(table_number)`,
		`CREATE OR REPLACE FUNCTION notify_orders_changed() RETURNS trigger AS $$
        BEGIN
            PERFORM pg_notify('` + notifyChannel + `', '');
            RETURN NULL;
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS orders_changed ON orders`,
		`CREATE TRIGGER orders_changed AFTER INSERT OR UPDATE OR DELETE ON orders
            FOR EACH STATEMENT EXECUTE FUNCTION notify_orders_changed()`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// listenPooled pins one pooled connection to the notification channel.
func (s *Storage) listenPooled(ctx context.Context, channel string) (notificationWaiter, error) {
	pool, ok := s.pool.(*pgxpool.Pool)
	if !ok {
		return nil, errors.New("listen requires a connection pool")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return &pooledListener{conn: conn}, nil
}

type pooledListener struct {
	conn *pgxpool.Conn
}

func (l *pooledListener) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return l.conn.Conn().WaitForNotification(ctx)
}

func (l *pooledListener) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := l.conn.Exec(ctx, "UNLISTEN *"); err != nil {
		// the connection is in an unknown state, drop it instead of reusing it
		_ = l.conn.Hijack().Close(ctx)
		return
	}
	l.conn.Release()
}

type itemDocument struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func encodeItems(items []model.LineItem) ([]byte, error) {
	docs := make([]itemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, itemDocument{Name: item.Name, Price: item.UnitPrice, Quantity: item.Quantity})
	}
	return json.Marshal(docs)
}

func decodeItems(raw []byte) ([]model.LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var docs []itemDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	items := make([]model.LineItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, model.LineItem{Name: d.Name, UnitPrice: d.Price, Quantity: d.Quantity})
	}
	return items, nil
}

const selectOrderColumns = `SELECT id::text, table_number, items, status, total_amount::text, created_at, completed_at FROM orders`

func scanOrder(row pgx.Row) (*model.OrderRecord, error) {
	var (
		rec    model.OrderRecord
		items  []byte
		status string
		total  string
	)
	if err := row.Scan(&rec.ID, &rec.TableNumber, &items, &status, &total, &rec.CreatedAt, &rec.CompletedAt); err != nil {
		return nil, err
	}
	decoded, err := decodeItems(items)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("decode total of order %s: %w", rec.ID, err)
	}
	rec.Items = decoded
	rec.Status = model.OrderStatus(status)
	rec.TotalAmount = amount
	return &rec, nil
}

// --- OrderStore implementation ---

func (r *orderStore) list(ctx context.Context) ([]model.OrderRecord, error) {
	rows, err := r.storage.pool.Query(ctx, selectOrderColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Watch delivers the collection once and again after every change notification.
func (r *orderStore) Watch(ctx context.Context, deliver func([]model.OrderRecord)) error {
	listener, err := r.storage.listen(ctx, notifyChannel)
	if err != nil {
		return err
	}
	defer listener.Release()

	for {
		records, err := r.list(ctx)
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		deliver(records)

		n, err := listener.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		r.storage.logger.Debug("orders changed", slog.String("channel", n.Channel), slog.Uint64("pid", uint64(n.PID)))
	}
}

func (r *orderStore) Get(ctx context.Context, id string) (*model.OrderRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domainErrors.ErrNotFound
	}
	rec, err := scanOrder(r.storage.pool.QueryRow(ctx, selectOrderColumns+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *orderStore) UpdateFields(ctx context.Context, id string, update model.OrderUpdate) error {
	if _, err := uuid.Parse(id); err != nil {
		return domainErrors.ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+"=$"+strconv.Itoa(len(args)))
	}
	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.Items != nil {
		raw, err := encodeItems(*update.Items)
		if err != nil {
			return err
		}
		add("items", raw)
	}
	if update.TotalAmount != nil {
		add("total_amount", *update.TotalAmount)
	}
	if update.CompletedAt != nil {
		add("completed_at", *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id=$` + strconv.Itoa(len(args))
	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domainErrors.ErrNotFound
	}
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderStore) Create(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	raw, err := encodeItems(draft.Items)
	if err != nil {
		return nil, err
	}
	rec := model.OrderRecord{
		ID:          uuid.NewString(),
		TableNumber: draft.TableNumber,
		Items:       draft.Items,
		Status:      model.OrderStatusNew,
		TotalAmount: model.TotalOf(draft.Items),
	}

	const query = `INSERT INTO orders (id, table_number, items, status, total_amount)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING created_at`
	err = r.storage.pool.QueryRow(ctx, query, rec.ID, rec.TableNumber, raw, string(rec.Status), rec.TotalAmount).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &rec, nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
