package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/AlwaysKim-03/orderland-sub000/internal/broadcast"
	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/reconcile"
)

// Module wires the board facade, the HTTP server and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewBoard,
		newHTTPServer,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Engine     *reconcile.Engine
	Bus        broadcast.Bus
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	var (
		unsubscribe   func()
		cancelStreams context.CancelFunc
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting tableboard", slog.String("addr", p.Server.Addr))
			if err := p.Engine.Start(ctx); err != nil {
				return err
			}

			var err error
			unsubscribe, err = p.Bus.Subscribe(func(ev model.TablesChanged) {
				if err := p.Engine.ReloadTables(context.Background()); err != nil {
					p.Logger.Warn("failed to reload tables", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				p.Engine.Stop(ctx)
				return err
			}

			// long-lived event streams observe this context and end on stop
			var baseCtx context.Context
			baseCtx, cancelStreams = context.WithCancel(context.Background())
			p.Server.BaseContext = func(net.Listener) context.Context { return baseCtx }

			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if unsubscribe != nil {
				unsubscribe()
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			p.Engine.Stop(shutdownCtx)
			if cancelStreams != nil {
				cancelStreams()
			}

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("tableboard stopped")
			return nil
		},
	})
}
