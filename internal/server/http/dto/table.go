package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddTableRequest registers a table on the roster.
type AddTableRequest struct {
	ID int `json:"id"`
}

// TableResponse describes a roster entry.
type TableResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LineResponse is one line of a table's order view.
type LineResponse struct {
	Ref       string          `json:"ref"`
	OrderID   string          `json:"order_id"`
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableViewResponse is the derived view of one table.
type TableViewResponse struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	OrderCount    int            `json:"order_count"`
	LastOrderTime string         `json:"last_order_time,omitempty"`
	Pending       bool           `json:"pending"`
	Lines         []LineResponse `json:"lines"`
}

// CommandResponse reports the outcome of an operator command.
type CommandResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
