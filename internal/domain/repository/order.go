package repository

import (
	"context"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// OrderStore is the remote document store holding order records.
type OrderStore interface {
	// Watch delivers the full collection ordered by creation time, newest first,
	// once on connect and again after every remote change. It blocks until ctx
	// ends or the transport fails.
	Watch(ctx context.Context, deliver func([]model.OrderRecord)) error
	Get(ctx context.Context, id string) (*model.OrderRecord, error)
	UpdateFields(ctx context.Context, id string, update model.OrderUpdate) error
	Delete(ctx context.Context, id string) error
	Create(ctx context.Context, draft model.OrderDraft) (*model.OrderRecord, error)
}
