package firestore

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
)

// Params are the dependencies of the Firestore order store.
type Params struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// Open connects the store and closes it when the application stops.
func Open(p Params) (*Storage, error) {
	storage, err := New(p.Ctx, p.Config.FirestoreProject, p.Config.OrdersCollection, p.Logger)
	if err != nil {
		return nil, err
	}
	registerLifecycle(p.Lifecycle, storage)
	return storage, nil
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return storage.Close()
		},
	})
}
