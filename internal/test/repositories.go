package test

import (
	"context"
	"sync"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// OrderUpdateCall captures a single UpdateFields invocation.
type OrderUpdateCall struct {
	ID     string
	Update model.OrderUpdate
}

// OrderStoreStub keeps order records in memory and records every write.
// It is safe for concurrent use.
type OrderStoreStub struct {
	sync.Mutex

	WatchFn        func(context.Context, func([]model.OrderRecord)) error
	GetFn          func(context.Context, string) (*model.OrderRecord, error)
	UpdateFieldsFn func(context.Context, string, model.OrderUpdate) error
	DeleteFn       func(context.Context, string) error
	CreateFn       func(context.Context, model.OrderDraft) (*model.OrderRecord, error)

	Records     map[string]model.OrderRecord
	UpdateCalls []OrderUpdateCall
	Deleted     []string
	Drafts      []model.OrderDraft
}

// NewOrderStoreStub seeds the stub with records.
func NewOrderStoreStub(records ...model.OrderRecord) *OrderStoreStub {
	s := &OrderStoreStub{Records: make(map[string]model.OrderRecord)}
	for _, r := range records {
		s.Records[r.ID] = r
	}
	return s
}

// Watch runs the override or returns immediately.
func (s *OrderStoreStub) Watch(ctx context.Context, deliver func([]model.OrderRecord)) error {
	if s.WatchFn != nil {
		return s.WatchFn(ctx, deliver)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Get returns the stored record or not found.
func (s *OrderStoreStub) Get(ctx context.Context, id string) (*model.OrderRecord, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	s.Lock()
	defer s.Unlock()
	r, ok := s.Records[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	c := r.Clone()
	return &c, nil
}

// UpdateFields records the call and applies it to the stored record.
func (s *OrderStoreStub) UpdateFields(ctx context.Context, id string, update model.OrderUpdate) error {
	s.Lock()
	s.UpdateCalls = append(s.UpdateCalls, OrderUpdateCall{ID: id, Update: update})
	s.Unlock()
	if s.UpdateFieldsFn != nil {
		return s.UpdateFieldsFn(ctx, id, update)
	}

	s.Lock()
	defer s.Unlock()
	r, ok := s.Records[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if update.Status != nil {
		r.Status = *update.Status
	}
	if update.Items != nil {
		r.Items = append([]model.LineItem(nil), (*update.Items)...)
	}
	if update.TotalAmount != nil {
		r.TotalAmount = *update.TotalAmount
	}
	if update.CompletedAt != nil {
		t := *update.CompletedAt
		r.CompletedAt = &t
	}
	s.Records[id] = r
	return nil
}

// Delete records the call and removes the stored record.
func (s *OrderStoreStub) Delete(ctx context.Context, id string) error {
	s.Lock()
	s.Deleted = append(s.Deleted, id)
	s.Unlock()
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}

	s.Lock()
	defer s.Unlock()
	if _, ok := s.Records[id]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(s.Records, id)
	return nil
}

// Create records the draft and stores a new record.
func (s *OrderStoreStub) Create(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	s.Lock()
	s.Drafts = append(s.Drafts, draft)
	s.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, draft)
	}
	rec := model.OrderRecord{
		ID:          "created",
		TableNumber: draft.TableNumber,
		Items:       draft.Items,
		Status:      model.OrderStatusNew,
		TotalAmount: model.TotalOf(draft.Items),
	}
	s.Lock()
	s.Records[rec.ID] = rec
	s.Unlock()
	return &rec, nil
}

// Updates returns a copy of the recorded UpdateFields calls.
func (s *OrderStoreStub) Updates() []OrderUpdateCall {
	s.Lock()
	defer s.Unlock()
	return append([]OrderUpdateCall(nil), s.UpdateCalls...)
}

// Snapshot returns the stored records as a feed would deliver them.
func (s *OrderStoreStub) Snapshot() []model.OrderRecord {
	s.Lock()
	defer s.Unlock()
	out := make([]model.OrderRecord, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r.Clone())
	}
	return out
}

// KeyValueStoreStub is an in-memory local persistence slot.
type KeyValueStoreStub struct {
	sync.Mutex

	Values  map[string][]byte
	LoadErr error
	SaveErr error
}

// NewKeyValueStoreStub returns an empty slot.
func NewKeyValueStoreStub() *KeyValueStoreStub {
	return &KeyValueStoreStub{Values: make(map[string][]byte)}
}

// Load returns the stored value.
func (s *KeyValueStoreStub) Load(ctx context.Context, key string) ([]byte, bool, error) {
	s.Lock()
	defer s.Unlock()
	if s.LoadErr != nil {
		return nil, false, s.LoadErr
	}
	v, ok := s.Values[key]
	return v, ok, nil
}

// Save stores value under key.
func (s *KeyValueStoreStub) Save(ctx context.Context, key string, value []byte) error {
	s.Lock()
	defer s.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Values[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (s *KeyValueStoreStub) Delete(ctx context.Context, key string) error {
	s.Lock()
	defer s.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	delete(s.Values, key)
	return nil
}
