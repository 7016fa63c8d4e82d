package repository

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// RepairResult describes an applied balance repair.
type RepairResult struct {
	UserID       int64
	OldPoints    int64
	NewPoints    int64
	OldLevelID   *int64
	NewLevelID   *int64
	LevelChanged bool
}

// ConsistencyRepository exposes the audit queries the reconciliation job
// runs out-of-band against the same tables the ledger writes.
type ConsistencyRepository interface {
	// CachedAndComputed returns the denormalized balance alongside the
	// ledger-computed sum for one user.
	CachedAndComputed(ctx context.Context, userID int64) (cached int64, computed int64, err error)

	// NegativeBalanceEntries returns ledger rows with balance_after < 0.
	NegativeBalanceEntries(ctx context.Context) ([]model.PointTransaction, error)

	// OrphanedDisputeIDs returns disputes whose transaction reference no
	// longer resolves.
	OrphanedDisputeIDs(ctx context.Context) ([]int64, error)

	// RepairBalance sets the cached balance to the ledger sum and re-derives
	// the level, atomically. The ledger always wins.
	RepairBalance(ctx context.Context, userID int64, resolve LevelResolver) (*RepairResult, error)
}
