package cache

import (
	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/config"
)

// Module provides the balance cache to the fx container.
var Module = fx.Provide(newBalanceCache)

type cacheParams struct {
	fx.In

	Config *config.Config
}

func newBalanceCache(p cacheParams) BalanceCache {
	return NewTTL(p.Config.BalanceCacheTTL)
}
