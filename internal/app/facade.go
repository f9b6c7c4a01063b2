package app

import (
	"context"
	"encoding/json"

	"github.com/AlwaysKim-03/orderland-sub000/internal/broadcast"
	"github.com/AlwaysKim-03/orderland-sub000/internal/cart"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/notify"
	"github.com/AlwaysKim-03/orderland-sub000/internal/reconcile"
)

// Board is the operator-facing facade over the engine and local state.
type Board struct {
	engine  *reconcile.Engine
	carts   *cart.Cache
	notices *notify.Hub
	bus     broadcast.Bus
}

func NewBoard(engine *reconcile.Engine, carts *cart.Cache, notices *notify.Hub, bus broadcast.Bus) *Board {
	return &Board{engine: engine, carts: carts, notices: notices, bus: bus}
}

func (b *Board) Tables() []model.TableView {
	return b.engine.Tables()
}

func (b *Board) TableView(tableID int) model.TableView {
	return b.engine.GetTableView(tableID)
}

func (b *Board) AddTable(ctx context.Context, id int) (model.Table, error) {
	return b.engine.AddTable(ctx, id)
}

func (b *Board) RemoveTable(ctx context.Context, id int) error {
	return b.engine.RemoveTable(ctx, id)
}

func (b *Board) ConfirmTable(ctx context.Context, tableID int) error {
	return b.engine.Dispatch(ctx, reconcile.ConfirmTable(tableID)).Err
}

func (b *Board) EndTable(ctx context.Context, tableID int) error {
	return b.engine.Dispatch(ctx, reconcile.EndTable(tableID)).Err
}

func (b *Board) Orders() []model.OrderRecord {
	return b.engine.Orders()
}

func (b *Board) PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
	return b.engine.PlaceOrder(ctx, draft)
}

func (b *Board) DeleteLineItem(ctx context.Context, orderID string, index int) error {
	return b.engine.Dispatch(ctx, reconcile.DeleteLineItem(orderID, index)).Err
}

func (b *Board) Cart(ctx context.Context, tableID int) (json.RawMessage, error) {
	return b.carts.Load(ctx, tableID)
}

func (b *Board) SaveCart(ctx context.Context, tableID int, payload json.RawMessage) error {
	return b.carts.Save(ctx, tableID, payload)
}

func (b *Board) OnProjectionChanged(fn func(tableID int, view model.TableView)) func() {
	return b.engine.OnProjectionChanged(fn)
}

func (b *Board) OnNotice(fn func(model.Notice)) func() {
	return b.notices.Subscribe(fn)
}

func (b *Board) OnTablesChanged(fn func(model.TablesChanged)) (func(), error) {
	return b.bus.Subscribe(fn)
}
