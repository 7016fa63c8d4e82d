package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/config"
	"github.com/perkhub/pointsledger/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.UserRepository { return s.Users() },
		func(s *Storage) repository.TransactionRepository { return s.Transactions() },
		func(s *Storage) repository.DisputeRepository { return s.Disputes() },
		func(s *Storage) repository.PurchaseRepository { return s.Purchases() },
		func(s *Storage) repository.LevelRepository { return s.Levels() },
		func(s *Storage) repository.ConsistencyRepository { return s.Consistency() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
