package di

import (
	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/app"
	"github.com/perkhub/pointsledger/internal/cache"
	"github.com/perkhub/pointsledger/internal/config"
	"github.com/perkhub/pointsledger/internal/logger"
	"github.com/perkhub/pointsledger/internal/notify"
	"github.com/perkhub/pointsledger/internal/pkg/auth"
	"github.com/perkhub/pointsledger/internal/server/http/handlers"
	"github.com/perkhub/pointsledger/internal/server/http/router"
	"github.com/perkhub/pointsledger/internal/storage/postgres"
	"github.com/perkhub/pointsledger/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		cache.Module,
		notify.Module,
		postgres.Module,
		usecase.Module,
		fx.Provide(func(facade *app.PointsFacade) handlers.PointsFacade { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
