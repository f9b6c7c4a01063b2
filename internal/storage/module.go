package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
	"github.com/AlwaysKim-03/orderland-sub000/internal/storage/firestore"
	"github.com/AlwaysKim-03/orderland-sub000/internal/storage/postgres"
	"github.com/AlwaysKim-03/orderland-sub000/internal/storage/sqlite"
)

// HealthChecker reports whether the remote order store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Module wires the configured remote order store and the local state store.
var Module = fx.Options(
	fx.Provide(newOrderStore),
	sqlite.Module,
)

type orderStoreParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

type orderStoreResult struct {
	fx.Out

	Store  repository.OrderStore
	Health HealthChecker
}

func newOrderStore(p orderStoreParams) (orderStoreResult, error) {
	switch p.Config.StoreDriver {
	case config.DriverPostgres:
		st, err := postgres.Open(postgres.Params{Ctx: p.Ctx, Lifecycle: p.Lifecycle, Config: p.Config, Logger: p.Logger})
		if err != nil {
			return orderStoreResult{}, err
		}
		return orderStoreResult{Store: st.Orders(), Health: st}, nil
	case config.DriverFirestore:
		st, err := firestore.Open(firestore.Params{Ctx: p.Ctx, Lifecycle: p.Lifecycle, Config: p.Config, Logger: p.Logger})
		if err != nil {
			return orderStoreResult{}, err
		}
		return orderStoreResult{Store: st.Orders(), Health: st}, nil
	default:
		return orderStoreResult{}, fmt.Errorf("unknown order store %q", p.Config.StoreDriver)
	}
}
