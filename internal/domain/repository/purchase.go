package repository

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// PurchaseRepository persists mall purchases backed by ledger entries.
type PurchaseRepository interface {
	Create(ctx context.Context, p *model.PointPurchase) (*model.PointPurchase, error)

	GetByID(ctx context.Context, id int64) (*model.PointPurchase, error)

	// SetTransaction links the purchase to its SPEND ledger entry.
	SetTransaction(ctx context.Context, id int64, transactionID int64) error

	// Transition moves the purchase between statuses with a conditional
	// update; ErrPurchaseFinalized when the row is not in the from status.
	Transition(ctx context.Context, id int64, from, to model.PurchaseStatus) error

	// ListOrphaned returns ids of purchases whose transaction reference no
	// longer resolves.
	ListOrphaned(ctx context.Context) ([]int64, error)
}
