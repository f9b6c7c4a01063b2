package repository

import "context"

// KeyValueStore is the durable local persistence slot.
type KeyValueStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
