package reconcile

import (
	"time"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// DeriveStatus maps the orders of a single table to its display status.
// The first matching rule wins: new, ready, preparing, served. Tables whose
// orders are all cancelled, completed or unknown stay ordered rather than
// falling back to empty.
func DeriveStatus(orders []model.OrderRecord) model.TableStatus {
	if len(orders) == 0 {
		return model.TableStatusEmpty
	}

	var hasReady, hasPreparing, hasServed bool
	for _, o := range orders {
		switch o.Status {
		case model.OrderStatusNew:
			return model.TableStatusOrdered
		case model.OrderStatusReady:
			hasReady = true
		case model.OrderStatusPreparing:
			hasPreparing = true
		case model.OrderStatusServed:
			hasServed = true
		}
	}

	switch {
	case hasReady:
		return model.TableStatusReady
	case hasPreparing:
		return model.TableStatusCooking
	case hasServed:
		return model.TableStatusCompleted
	default:
		return model.TableStatusOrdered
	}
}

// LineStatusFor maps an order status to the status shown on each of its lines.
// Anything unrecognized renders as cooking.
func LineStatusFor(status model.OrderStatus) model.LineStatus {
	switch status {
	case model.OrderStatusNew:
		return model.LineStatusNew
	case model.OrderStatusReady:
		return model.LineStatusReady
	case model.OrderStatusServed:
		return model.LineStatusServed
	default:
		return model.LineStatusCooking
	}
}

// earliestOrder returns the creation time of the oldest order.
func earliestOrder(orders []model.OrderRecord) time.Time {
	var earliest time.Time
	for i, o := range orders {
		if i == 0 || o.CreatedAt.Before(earliest) {
			earliest = o.CreatedAt
		}
	}
	return earliest
}
