package handlers

import (
	"context"
	"encoding/json"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// TableFacade exposes table views, the roster and table-level commands.
type TableFacade interface {
	Tables() []model.TableView
	TableView(tableID int) model.TableView
	AddTable(ctx context.Context, id int) (model.Table, error)
	RemoveTable(ctx context.Context, id int) error
	ConfirmTable(ctx context.Context, tableID int) error
	EndTable(ctx context.Context, tableID int) error
}

// OrderFacade exposes order documents and line-level commands.
type OrderFacade interface {
	Orders() []model.OrderRecord
	PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error)
	DeleteLineItem(ctx context.Context, orderID string, index int) error
}

// CartFacade stores table-scoped carts.
type CartFacade interface {
	Cart(ctx context.Context, tableID int) (json.RawMessage, error)
	SaveCart(ctx context.Context, tableID int, payload json.RawMessage) error
}

// EventFacade lets the event stream follow projection changes, notices and
// roster broadcasts.
type EventFacade interface {
	Tables() []model.TableView
	OnProjectionChanged(fn func(tableID int, view model.TableView)) (unsubscribe func())
	OnNotice(fn func(model.Notice)) (unsubscribe func())
	OnTablesChanged(fn func(model.TablesChanged)) (unsubscribe func(), err error)
}

// BoardFacade aggregates the full set of operations used across handlers.
type BoardFacade interface {
	TableFacade
	OrderFacade
	CartFacade
	EventFacade
}

// HealthChecker reports whether the remote order store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
