package model

import "time"

// PurchaseStatus describes mall purchase lifecycle.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// PointPurchase records a mall item bought with points. TransactionID is nil
// for free items; cancellation records a compensating refund entry and never
// rewrites the original SPEND row.
type PointPurchase struct {
	ID            int64
	UserID        int64
	ItemID        int64
	PointsCost    int64
	TransactionID *int64
	Status        PurchaseStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Finalized reports whether the purchase reached a terminal state.
func (p *PointPurchase) Finalized() bool {
	return p.Status != PurchasePending
}
