package repository

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// DisputeRepository persists the objection workflow. A unique index on
// transaction_id enforces at most one dispute per ledger entry.
type DisputeRepository interface {
	// Create inserts a PENDING dispute; ErrAlreadyExists when the transaction
	// is already disputed.
	Create(ctx context.Context, d *model.PointDispute) (*model.PointDispute, error)

	GetByID(ctx context.Context, id int64) (*model.PointDispute, error)

	// GetByTransaction returns the dispute filed against a transaction, or
	// ErrNotFound.
	GetByTransaction(ctx context.Context, transactionID int64) (*model.PointDispute, error)

	// Resolve moves a PENDING dispute to a terminal status with admin
	// attribution. ErrDisputeAlreadyResolved when the row is no longer
	// PENDING; the guard is a conditional update, not a read-then-write.
	Resolve(ctx context.Context, id int64, status model.DisputeStatus, adminUserID int64, response string) (*model.PointDispute, error)
}
