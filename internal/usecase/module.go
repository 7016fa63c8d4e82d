package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/cache"
	"github.com/perkhub/pointsledger/internal/config"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/notify"
)

// Module provides core business services to the fx container.
var Module = fx.Provide(
	NewLevelService,
	newLedgerEngine,
	NewDisputeService,
	NewPurchaseService,
	newConsistencyService,
)

type ledgerParams struct {
	fx.In

	Transactions repository.TransactionRepository
	Users        repository.UserRepository
	Levels       *LevelService
	Balances     cache.BalanceCache
	Notifier     notify.Notifier
	Logger       *slog.Logger
	Config       *config.Config
}

func newLedgerEngine(p ledgerParams) *LedgerEngine {
	return NewLedgerEngine(p.Transactions, p.Users, p.Levels, p.Balances, p.Notifier, p.Logger,
		LedgerOptions{DisputeWindowDays: p.Config.DisputeWindowDays})
}

type consistencyParams struct {
	fx.In

	Users        repository.UserRepository
	Transactions repository.TransactionRepository
	Consistency  repository.ConsistencyRepository
	Purchases    repository.PurchaseRepository
	Levels       *LevelService
	Balances     cache.BalanceCache
	Logger       *slog.Logger
	Config       *config.Config
}

func newConsistencyService(p consistencyParams) *ConsistencyService {
	return NewConsistencyService(p.Users, p.Transactions, p.Consistency, p.Purchases,
		p.Levels, p.Balances, p.Logger, p.Config.ReconcileBatchSize)
}
