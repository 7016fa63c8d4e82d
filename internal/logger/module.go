package logger

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/perkhub/pointsledger/internal/config"
)

// Module wires the slog logger for dependency injection, leveled from
// configuration.
var Module = fx.Provide(func(cfg *config.Config) *slog.Logger {
	return New(cfg.LogLevel)
})
