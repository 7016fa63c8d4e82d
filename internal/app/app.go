package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/config"
	pkgAuth "github.com/perkhub/pointsledger/internal/pkg/auth"
	"github.com/perkhub/pointsledger/internal/usecase"
	"github.com/perkhub/pointsledger/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newPointsFacade,
		newHTTPServer,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Ledger      *usecase.LedgerEngine
	Levels      *usecase.LevelService
	Disputes    *usecase.DisputeService
	Purchases   *usecase.PurchaseService
	Consistency *usecase.ConsistencyService
	Tokens      pkgAuth.Strategy
	AdminKeys   pkgAuth.KeyVerifier
	Config      *config.Config
}

func newPointsFacade(p facadeParams) *PointsFacade {
	return NewPointsFacade(p.Ledger, p.Levels, p.Disputes, p.Purchases, p.Consistency,
		p.Tokens, p.AdminKeys, p.Config.AdminKeyHash)
}

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

type workerParams struct {
	fx.In

	Facade *PointsFacade
	Config *config.Config
	Logger *slog.Logger
}

func newReconciler(p workerParams) *worker.Reconciler {
	return worker.NewReconciler(p.Facade, p.Config.ReconcileInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Levels     *usecase.LevelService
	Reconciler *worker.Reconciler
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Levels.Reload(ctx); err != nil {
				return err
			}
			p.Logger.Info("starting pointsledger", slog.String("addr", p.Server.Addr))
			p.Reconciler.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Reconciler.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("pointsledger stopped")
			return nil
		},
	})
}
