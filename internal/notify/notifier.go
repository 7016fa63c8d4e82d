// Package notify is the outbound notification collaborator. Delivery is
// fire-and-forget: a failed or slow notification must never affect a
// committed ledger mutation, so implementations return nothing.
package notify

import (
	"context"
	"log/slog"
)

// Notifier receives events after successful ledger mutations.
type Notifier interface {
	PointsEarned(ctx context.Context, userID int64, amount int64, description string)
	PointsSpent(ctx context.Context, userID int64, amount int64, description string)
	LevelChanged(ctx context.Context, userID int64, oldLevelID, newLevelID *int64)
}

// LogNotifier writes events to the structured log. The production platform
// replaces it with its SSE delivery pipeline.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PointsEarned(ctx context.Context, userID int64, amount int64, description string) {
	n.logger.Info("points earned",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.String("description", description),
	)
}

func (n *LogNotifier) PointsSpent(ctx context.Context, userID int64, amount int64, description string) {
	n.logger.Info("points spent",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.String("description", description),
	)
}

func (n *LogNotifier) LevelChanged(ctx context.Context, userID int64, oldLevelID, newLevelID *int64) {
	n.logger.Info("level changed",
		slog.Int64("user_id", userID),
		slog.Any("old_level_id", oldLevelID),
		slog.Any("new_level_id", newLevelID),
	)
}
