package notify

import (
	"log/slog"

	"go.uber.org/fx"
)

// Module provides the notifier collaborator via fx.
var Module = fx.Provide(func(logger *slog.Logger) Notifier {
	return NewLogNotifier(logger)
})
