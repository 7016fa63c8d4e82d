package auth

import (
	"github.com/perkhub/pointsledger/internal/config"
	"go.uber.org/fx"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newKeyVerifier),
	fx.Provide(newTokenStrategy),
)

func newKeyVerifier() KeyVerifier {
	return NewBcryptVerifier(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.ServiceTokenSecret, Options{})
}
