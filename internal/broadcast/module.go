package broadcast

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
)

// Module provides the roster change bus. A NATS URL selects the shared bus;
// otherwise events stay in-process.
var Module = fx.Provide(newBus)

func newBus(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (Bus, error) {
	var (
		bus Bus
		err error
	)
	if cfg.NATSURL != "" {
		bus, err = NewNATS(cfg.NATSURL, logger)
		if err != nil {
			return nil, err
		}
	} else {
		bus = NewLocal()
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return bus.Close()
		},
	})
	return bus, nil
}
