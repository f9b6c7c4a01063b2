package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRef addresses a single line item by its parent order and position.
type LineItemRef struct {
	OrderID string
	Index   int
}

// Equal reports whether both refs address the same line.
func (r LineItemRef) Equal(other LineItemRef) bool {
	return r.OrderID == other.OrderID && r.Index == other.Index
}

// String renders the ref as "<orderID>/<index>".
func (r LineItemRef) String() string {
	return r.OrderID + "/" + strconv.Itoa(r.Index)
}

// ParseLineItemRef is the inverse of LineItemRef.String.
func ParseLineItemRef(s string) (LineItemRef, error) {
	sep := strings.LastIndex(s, "/")
	if sep <= 0 || sep == len(s)-1 {
		return LineItemRef{}, fmt.Errorf("malformed line item ref %q", s)
	}
	idx, err := strconv.Atoi(s[sep+1:])
	if err != nil || idx < 0 {
		return LineItemRef{}, fmt.Errorf("malformed line item index in %q", s)
	}
	return LineItemRef{OrderID: s[:sep], Index: idx}, nil
}

// LineStatus is the UI-facing status of a single line.
type LineStatus string

const (
	LineStatusNew     LineStatus = "new"
	LineStatusCooking LineStatus = "cooking"
	LineStatusReady   LineStatus = "ready"
	LineStatusServed  LineStatus = "served"
)

// TableOrderLine is one exploded line item in a table's order view.
type TableOrderLine struct {
	Ref       LineItemRef
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Status    LineStatus
	CreatedAt time.Time
}
