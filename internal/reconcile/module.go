package reconcile

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

// Module provides the reconciliation engine.
var Module = fx.Provide(newFromConfig)

type engineParams struct {
	fx.In

	Store    repository.OrderStore
	Feed     Subscriber
	Roster   Roster
	Carts    CartCache
	Notifier Notifier
	Config   *config.Config
	Logger   *slog.Logger
}

func newFromConfig(p engineParams) *Engine {
	return NewEngine(p.Store, p.Feed, p.Roster, p.Carts, p.Notifier, p.Logger, Options{
		TimeLayout:       p.Config.TimeLayout,
		WriteConcurrency: p.Config.WriteConcurrency,
	})
}
