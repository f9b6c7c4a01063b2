package dto

// Server-sent event names.
const (
	EventSnapshot      = "snapshot"
	EventTable         = "table"
	EventNotice        = "notice"
	EventTablesChanged = "tables_changed"
)

// Event is one message of the event stream.
type Event struct {
	Name string
	Data any
}
