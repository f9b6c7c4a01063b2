package model

import (
	"fmt"
	"time"
)

// TableStatus is the derived display status of a table.
type TableStatus string

const (
	TableStatusEmpty     TableStatus = "empty"
	TableStatusOrdered   TableStatus = "ordered"
	TableStatusCooking   TableStatus = "cooking"
	TableStatusReady     TableStatus = "ready"
	TableStatusCompleted TableStatus = "completed"
)

// Table is an operator-managed seating unit.
type Table struct {
	ID   int
	Name string
}

// NewTable builds a table with its display name derived from id.
func NewTable(id int) Table {
	return Table{ID: id, Name: TableName(id)}
}

// TableName zero-pads the table id.
func TableName(id int) string {
	return fmt.Sprintf("%02d", id)
}

// TableView is the read model of a table handed to the UI layer.
type TableView struct {
	Table         Table
	Status        TableStatus
	OrderCount    int
	LastOrderTime string
	LastOrderAt   time.Time
	Lines         []TableOrderLine
	Pending       bool
}

// TablesChanged is broadcast whenever the roster is saved.
type TablesChanged struct {
	TableIDs []int     `json:"table_ids"`
	At       time.Time `json:"at"`
}
