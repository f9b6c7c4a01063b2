package test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// BoardFacadeStub provides controllable behaviour for HTTP handlers.
type BoardFacadeStub struct {
	TablesFn         func() []model.TableView
	TableViewFn      func(int) model.TableView
	AddTableFn       func(context.Context, int) (model.Table, error)
	RemoveTableFn    func(context.Context, int) error
	ConfirmTableFn   func(context.Context, int) error
	EndTableFn       func(context.Context, int) error
	OrdersFn         func() []model.OrderRecord
	PlaceOrderFn     func(context.Context, model.OrderDraft) (*model.OrderRecord, error)
	DeleteLineItemFn func(context.Context, string, int) error
	CartFn           func(context.Context, int) (json.RawMessage, error)
	SaveCartFn       func(context.Context, int, json.RawMessage) error
	TablesChangedErr error

	mu           sync.Mutex
	viewSubs     []func(int, model.TableView)
	noticeSubs   []func(model.Notice)
	tablesSubs   []func(model.TablesChanged)
	subscribed   chan struct{}
	unsubscribes int
}

// Tables returns configured views or none.
func (s *BoardFacadeStub) Tables() []model.TableView {
	if s.TablesFn != nil {
		return s.TablesFn()
	}
	return nil
}

// TableView returns the configured view or an empty one.
func (s *BoardFacadeStub) TableView(tableID int) model.TableView {
	if s.TableViewFn != nil {
		return s.TableViewFn(tableID)
	}
	return model.TableView{Table: model.NewTable(tableID), Status: model.TableStatusEmpty}
}

// AddTable delegates to AddTableFn or succeeds.
func (s *BoardFacadeStub) AddTable(ctx context.Context, id int) (model.Table, error) {
	if s.AddTableFn != nil {
		return s.AddTableFn(ctx, id)
	}
	return model.NewTable(id), nil
}

// RemoveTable delegates to RemoveTableFn or succeeds.
func (s *BoardFacadeStub) RemoveTable(ctx context.Context, id int) error {
	if s.RemoveTableFn != nil {
		return s.RemoveTableFn(ctx, id)
	}
	return nil
}

// ConfirmTable delegates to ConfirmTableFn or succeeds.
func (s *BoardFacadeStub) ConfirmTable(ctx context.Context, tableID int) error {
	if s.ConfirmTableFn != nil {
		return s.ConfirmTableFn(ctx, tableID)
	}
	return nil
}

// EndTable delegates to EndTableFn or succeeds.
func (s *BoardFacadeStub) EndTable(ctx context.Context, tableID int) error {
	if s.EndTableFn != nil {
		return s.EndTableFn(ctx, tableID)
	}
	return nil
}

// Orders returns configured orders or none.
func (s *BoardFacadeStub) Orders() []model.OrderRecord {
	if s.OrdersFn != nil {
		return s.OrdersFn()
	}
	return nil
}

// PlaceOrder delegates to PlaceOrderFn or echoes the draft.
func (s *BoardFacadeStub) PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	if s.PlaceOrderFn != nil {
		return s.PlaceOrderFn(ctx, draft)
	}
	return &model.OrderRecord{
		ID:          "created",
		TableNumber: draft.TableNumber,
		Items:       draft.Items,
		Status:      model.OrderStatusNew,
		TotalAmount: model.TotalOf(draft.Items),
	}, nil
}

// DeleteLineItem delegates to DeleteLineItemFn or succeeds.
func (s *BoardFacadeStub) DeleteLineItem(ctx context.Context, orderID string, index int) error {
	if s.DeleteLineItemFn != nil {
		return s.DeleteLineItemFn(ctx, orderID, index)
	}
	return nil
}

// Cart delegates to CartFn or reports no cart.
func (s *BoardFacadeStub) Cart(ctx context.Context, tableID int) (json.RawMessage, error) {
	if s.CartFn != nil {
		return s.CartFn(ctx, tableID)
	}
	return nil, nil
}

// SaveCart delegates to SaveCartFn or succeeds.
func (s *BoardFacadeStub) SaveCart(ctx context.Context, tableID int, payload json.RawMessage) error {
	if s.SaveCartFn != nil {
		return s.SaveCartFn(ctx, tableID, payload)
	}
	return nil
}

// OnProjectionChanged records fn for EmitView.
func (s *BoardFacadeStub) OnProjectionChanged(fn func(int, model.TableView)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewSubs = append(s.viewSubs, fn)
	return s.unsubscribe
}

// OnNotice records fn for EmitNotice.
func (s *BoardFacadeStub) OnNotice(fn func(model.Notice)) func() {
	s.mu.Lock()
	s.noticeSubs = append(s.noticeSubs, fn)
	ch := s.subscribedLocked()
	s.mu.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
	return s.unsubscribe
}

// OnTablesChanged records fn for EmitTablesChanged.
func (s *BoardFacadeStub) OnTablesChanged(fn func(model.TablesChanged)) (func(), error) {
	if s.TablesChangedErr != nil {
		return nil, s.TablesChangedErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tablesSubs = append(s.tablesSubs, fn)
	return s.unsubscribe, nil
}

// Subscribed is signalled once a stream has registered for every event kind.
func (s *BoardFacadeStub) Subscribed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribedLocked()
}

func (s *BoardFacadeStub) subscribedLocked() chan struct{} {
	if s.subscribed == nil {
		s.subscribed = make(chan struct{}, 1)
	}
	return s.subscribed
}

func (s *BoardFacadeStub) unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribes++
}

// Unsubscribes reports how many subscriptions were released.
func (s *BoardFacadeStub) Unsubscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribes
}

// EmitView delivers a projection change to subscribers.
func (s *BoardFacadeStub) EmitView(view model.TableView) {
	s.mu.Lock()
	subs := append(([]func(int, model.TableView))(nil), s.viewSubs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(view.Table.ID, view)
	}
}

// EmitNotice delivers a notice to subscribers.
func (s *BoardFacadeStub) EmitNotice(n model.Notice) {
	s.mu.Lock()
	subs := append(([]func(model.Notice))(nil), s.noticeSubs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(n)
	}
}

// EmitTablesChanged delivers a roster broadcast to subscribers.
func (s *BoardFacadeStub) EmitTablesChanged(ev model.TablesChanged) {
	s.mu.Lock()
	subs := append(([]func(model.TablesChanged))(nil), s.tablesSubs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// HealthCheckerStub returns Err from HealthCheck.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck reports the configured error.
func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}
