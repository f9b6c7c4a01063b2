package feed

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

// Module provides the change feed subscriber.
var Module = fx.Provide(newFromConfig)

func newFromConfig(store repository.OrderStore, cfg *config.Config, logger *slog.Logger) *Subscriber {
	return NewSubscriber(store, cfg.FeedMaxRetries, cfg.FeedBackoffStep, logger)
}
