package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemPayload is one line item of an order.
type ItemPayload struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// PlaceOrderRequest creates a new order for a table.
type PlaceOrderRequest struct {
	TableNumber int           `json:"table_number"`
	Items       []ItemPayload `json:"items"`
}

// OrderResponse describes an order document.
type OrderResponse struct {
	ID          string          `json:"id"`
	TableNumber int             `json:"table_number"`
	Items       []ItemPayload   `json:"items"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
