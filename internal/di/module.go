package di

import (
	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/app"
	"github.com/AlwaysKim-03/orderland-sub000/internal/broadcast"
	"github.com/AlwaysKim-03/orderland-sub000/internal/cart"
	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/feed"
	"github.com/AlwaysKim-03/orderland-sub000/internal/logger"
	"github.com/AlwaysKim-03/orderland-sub000/internal/notify"
	"github.com/AlwaysKim-03/orderland-sub000/internal/reconcile"
	"github.com/AlwaysKim-03/orderland-sub000/internal/roster"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/handlers"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/router"
	"github.com/AlwaysKim-03/orderland-sub000/internal/storage"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		storage.Module,
		broadcast.Module,
		roster.Module,
		cart.Module,
		notify.Module,
		feed.Module,
		reconcile.Module,
		fx.Provide(
			func(s *feed.Subscriber) reconcile.Subscriber { return s },
			func(r *roster.Roster) reconcile.Roster { return r },
			func(c *cart.Cache) reconcile.CartCache { return c },
			func(h *notify.Hub) reconcile.Notifier { return h },
			func(b *app.Board) handlers.BoardFacade { return b },
			func(h storage.HealthChecker) handlers.HealthChecker { return h },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
