package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTable       = errors.New("invalid table")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrNoActionableOrders = errors.New("no actionable orders")
	ErrItemAlreadyRemoved = errors.New("item already removed")
	ErrPartialFailure     = errors.New("partial failure")
	ErrFeedStopped        = errors.New("live order detection stopped")
	ErrEngineStopped      = errors.New("engine stopped")
)
