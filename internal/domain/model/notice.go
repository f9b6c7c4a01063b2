package model

import "time"

// NoticeLevel grades a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a toast-style message for the operator. TableID is zero when
// the notice is not about a particular table.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	TableID int         `json:"table_id,omitempty"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
