package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

// Document field names of an order.
const (
	fieldTableNumber = "tableNumber"
	fieldItems       = "items"
	fieldStatus      = "status"
	fieldCreatedAt   = "createdAt"
	fieldTotalAmount = "totalAmount"
	fieldCompletedAt = "completedAt"
)

// Storage is the order store backed by a Firestore collection.
type Storage struct {
	client     *firestore.Client
	collection string
	logger     *slog.Logger
}

type orderStore struct {
	storage *Storage
}

// New opens a Firestore client for projectID.
func New(ctx context.Context, projectID, collection string, logger *slog.Logger) (*Storage, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &Storage{client: client, collection: collection, logger: logger}, nil
}

// Close releases the client.
func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Orders returns the order store view of the storage.
func (s *Storage) Orders() repository.OrderStore {
	return &orderStore{storage: s}
}

// HealthCheck reads at most one document.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	it := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (r *orderStore) collection() *firestore.CollectionRef {
	return r.storage.client.Collection(r.storage.collection)
}

// Watch streams query snapshots of the whole collection, newest first.
func (r *orderStore) Watch(ctx context.Context, deliver func([]model.OrderRecord)) error {
	it := r.collection().OrderBy(fieldCreatedAt, firestore.Desc).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return ctx.Err()
			}
			return fmt.Errorf("order snapshot: %w", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("read order snapshot: %w", err)
		}
		records := make([]model.OrderRecord, 0, len(docs))
		for _, doc := range docs {
			rec, err := decodeDocument(doc.Ref.ID, doc.Data())
			if err != nil {
				r.storage.logger.Warn("skipping malformed order", slog.String("id", doc.Ref.ID), slog.String("error", err.Error()))
				continue
			}
			records = append(records, rec)
		}
		deliver(records)
	}
}

func (r *orderStore) Get(ctx context.Context, id string) (*model.OrderRecord, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	rec, err := decodeDocument(doc.Ref.ID, doc.Data())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *orderStore) UpdateFields(ctx context.Context, id string, update model.OrderUpdate) error {
	var updates []firestore.Update
	if update.Status != nil {
		updates = append(updates, firestore.Update{Path: fieldStatus, Value: string(*update.Status)})
	}
	if update.Items != nil {
		updates = append(updates, firestore.Update{Path: fieldItems, Value: encodeItems(*update.Items)})
	}
	if update.TotalAmount != nil {
		updates = append(updates, firestore.Update{Path: fieldTotalAmount, Value: update.TotalAmount.InexactFloat64()})
	}
	if update.CompletedAt != nil {
		updates = append(updates, firestore.Update{Path: fieldCompletedAt, Value: *update.CompletedAt})
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := r.collection().Doc(id).Update(ctx, updates)
	return mapError(err)
}

func (r *orderStore) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx, firestore.Exists)
	return mapError(err)
}

func (r *orderStore) Create(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	ref := r.collection().NewDoc()
	total := model.TotalOf(draft.Items)
	_, err := ref.Create(ctx, map[string]any{
		fieldTableNumber: strconv.Itoa(draft.TableNumber),
		fieldItems:       encodeItems(draft.Items),
		fieldStatus:      string(model.OrderStatusNew),
		fieldCreatedAt:   firestore.ServerTimestamp,
		fieldTotalAmount: total.InexactFloat64(),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &model.OrderRecord{
		ID:          ref.ID,
		TableNumber: draft.TableNumber,
		Items:       draft.Items,
		Status:      model.OrderStatusNew,
		TotalAmount: total,
		CreatedAt:   time.Now(),
	}, nil
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return domainErrors.ErrNotFound
	case codes.AlreadyExists:
		return domainErrors.ErrAlreadyExists
	default:
		return err
	}
}

func encodeItems(items []model.LineItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"name":     item.Name,
			"price":    item.UnitPrice.InexactFloat64(),
			"quantity": item.Quantity,
		})
	}
	return out
}

// decodeDocument normalizes a raw order document. tableNumber may be stored
// as a string or a number.
func decodeDocument(id string, data map[string]any) (model.OrderRecord, error) {
	rec := model.OrderRecord{ID: id}

	table, err := toInt(data[fieldTableNumber])
	if err != nil {
		return rec, fmt.Errorf("table number: %w", err)
	}
	rec.TableNumber = table

	rawItems, _ := data[fieldItems].([]any)
	for i, raw := range rawItems {
		m, ok := raw.(map[string]any)
		if !ok {
			return rec, fmt.Errorf("item %d: unexpected %T", i, raw)
		}
		name, _ := m["name"].(string)
		price, err := toDecimal(m["price"])
		if err != nil {
			return rec, fmt.Errorf("item %d price: %w", i, err)
		}
		qty, err := toInt(m["quantity"])
		if err != nil {
			return rec, fmt.Errorf("item %d quantity: %w", i, err)
		}
		rec.Items = append(rec.Items, model.LineItem{Name: name, UnitPrice: price, Quantity: qty})
	}

	if s, ok := data[fieldStatus].(string); ok {
		rec.Status = model.OrderStatus(strings.ToLower(s))
	}
	if t, ok := data[fieldCreatedAt].(time.Time); ok {
		rec.CreatedAt = t
	}
	if t, ok := data[fieldCompletedAt].(time.Time); ok {
		rec.CompletedAt = &t
	}

	if raw, ok := data[fieldTotalAmount]; ok && raw != nil {
		total, err := toDecimal(raw)
		if err != nil {
			return rec, fmt.Errorf("total amount: %w", err)
		}
		rec.TotalAmount = total
	} else {
		rec.TotalAmount = model.TotalOf(rec.Items)
	}
	return rec, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case int64:
		return decimal.NewFromInt(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("unexpected %T", v)
	}
}
