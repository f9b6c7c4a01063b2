package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the lifecycle of an order document in the remote store.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// LineItem is one menu entry with its quantity inside an order.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns unit price multiplied by quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRecord is the normalized form of one order document.
type OrderRecord struct {
	ID          string
	TableNumber int
	Items       []LineItem
	Status      OrderStatus
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Clone returns a deep copy so overlays never alias snapshot slices.
func (o OrderRecord) Clone() OrderRecord {
	c := o
	c.Items = append([]LineItem(nil), o.Items...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// TotalOf sums the subtotals of items.
func TotalOf(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderUpdate is a partial write against one order document. Nil fields are left untouched.
type OrderUpdate struct {
	Status      *OrderStatus
	Items       *[]LineItem
	TotalAmount *decimal.Decimal
	CompletedAt *time.Time
}

// OrderDraft carries the fields of an order about to be placed.
type OrderDraft struct {
	TableNumber int
	Items       []LineItem
}
