package test

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// SubscriberStub lets tests push snapshots and failures by hand.
type SubscriberStub struct {
	mu         sync.Mutex
	onSnapshot func([]model.OrderRecord)
	onError    func(error)
	Cancels    int
}

// Subscribe captures the callbacks.
func (s *SubscriberStub) Subscribe(onSnapshot func([]model.OrderRecord), onError func(error)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSnapshot = onSnapshot
	s.onError = onError
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.Cancels++
	}
}

// Push delivers a snapshot as if it came from the remote store.
func (s *SubscriberStub) Push(records ...model.OrderRecord) {
	s.mu.Lock()
	fn := s.onSnapshot
	s.mu.Unlock()
	if fn != nil {
		fn(records)
	}
}

// Fail reports a terminal feed error.
func (s *SubscriberStub) Fail(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// CancelCount returns how often the cancel func ran.
func (s *SubscriberStub) CancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cancels
}

// RosterStub keeps the table list in memory.
type RosterStub struct {
	sync.Mutex

	IDs     []int
	ListErr error
}

// List returns the configured tables in ascending order.
func (s *RosterStub) List(ctx context.Context) ([]model.Table, error) {
	s.Lock()
	defer s.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	ids := append([]int(nil), s.IDs...)
	sort.Ints(ids)
	tables := make([]model.Table, 0, len(ids))
	for _, id := range ids {
		tables = append(tables, model.NewTable(id))
	}
	return tables, nil
}

// Add appends a table unless already present.
func (s *RosterStub) Add(ctx context.Context, id int) (model.Table, error) {
	s.Lock()
	defer s.Unlock()
	if id <= 0 {
		return model.Table{}, domainErrors.ErrInvalidTable
	}
	for _, existing := range s.IDs {
		if existing == id {
			return model.Table{}, domainErrors.ErrAlreadyExists
		}
	}
	s.IDs = append(s.IDs, id)
	return model.NewTable(id), nil
}

// Remove drops a table.
func (s *RosterStub) Remove(ctx context.Context, id int) error {
	s.Lock()
	defer s.Unlock()
	for i, existing := range s.IDs {
		if existing == id {
			s.IDs = append(s.IDs[:i], s.IDs[i+1:]...)
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

// CartCacheStub records cleared tables.
type CartCacheStub struct {
	sync.Mutex

	Cleared []int
	Err     error
}

// Clear records the call.
func (s *CartCacheStub) Clear(ctx context.Context, tableID int) error {
	s.Lock()
	defer s.Unlock()
	s.Cleared = append(s.Cleared, tableID)
	return s.Err
}

// NotifierStub collects notices.
type NotifierStub struct {
	sync.Mutex

	Notices []model.Notice
}

// Notify records n.
func (s *NotifierStub) Notify(n model.Notice) {
	s.Lock()
	defer s.Unlock()
	s.Notices = append(s.Notices, n)
}

// All returns a copy of the collected notices.
func (s *NotifierStub) All() []model.Notice {
	s.Lock()
	defer s.Unlock()
	return append([]model.Notice(nil), s.Notices...)
}
