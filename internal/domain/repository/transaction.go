package repository

import (
	"context"
	"time"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// LevelResolver maps a balance to the level id it belongs to, nil when no
// ladder tier matches. Storage implementations call it inside the mutation
// transaction so the cached level is updated atomically with the balance.
type LevelResolver func(balance int64) *int64

// EarnParams describes an EARN append. Amount is positive, storage units.
// CompanyID scopes the row to a tenant when the calling service supplies one.
type EarnParams struct {
	UserID          int64
	CompanyID       *int64
	Amount          int64
	ReferenceID     string
	ReferenceType   string
	Description     string
	DisputeDeadline *time.Time
}

// SpendParams describes a SPEND append. Amount is the positive cost; the
// ledger records it negated.
type SpendParams struct {
	UserID        int64
	Amount        int64
	ReferenceID   string
	ReferenceType string
	Description   string
}

// AdjustParams describes a signed ADJUST append.
type AdjustParams struct {
	UserID        int64
	Amount        int64
	ReferenceID   string
	ReferenceType string
	Description   string
}

// MutationResult reports the outcome of one atomic ledger mutation.
type MutationResult struct {
	Transaction  *model.PointTransaction
	Deduplicated bool
	NewBalance   int64
	OldLevelID   *int64
	NewLevelID   *int64
	LevelChanged bool
}

// TransactionRepository owns the append-only ledger. Every mutation commits
// the transaction row, the cached balance, and the level reference as one
// unit, or not at all.
type TransactionRepository interface {
	// Earn appends an EARN row unless one already exists for the idempotency
	// key; in that case the existing row is returned with Deduplicated set.
	Earn(ctx context.Context, p EarnParams, resolve LevelResolver) (*MutationResult, error)

	// Spend appends a negative SPEND row after a row-locked balance check.
	Spend(ctx context.Context, p SpendParams, resolve LevelResolver) (*MutationResult, error)

	// Adjust appends a signed correction after a row-locked balance check.
	Adjust(ctx context.Context, p AdjustParams, resolve LevelResolver) (*MutationResult, error)

	GetByID(ctx context.Context, id int64) (*model.PointTransaction, error)

	// ListByUser returns the user's entries newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.PointTransaction, error)

	// ListByUserAsc returns the user's entries in creation order, the order
	// the running-balance invariant is defined over.
	ListByUserAsc(ctx context.Context, userID int64) ([]model.PointTransaction, error)

	// SumAmounts recomputes the authoritative balance from the ledger.
	SumAmounts(ctx context.Context, userID int64) (int64, error)

	// ListUndisputedEarnExpiring returns EARN rows whose dispute deadline
	// falls inside [from, to] and which have no dispute filed yet.
	ListUndisputedEarnExpiring(ctx context.Context, from, to time.Time) ([]model.PointTransaction, error)
}
