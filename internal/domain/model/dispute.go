package model

import "time"

// DisputeStatus describes the objection workflow state.
type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeApproved DisputeStatus = "APPROVED"
	DisputeRejected DisputeStatus = "REJECTED"
)

// PointDispute is a user objection against a single EARN transaction.
// The status moves PENDING -> APPROVED or REJECTED exactly once.
type PointDispute struct {
	ID              int64
	TransactionID   int64
	UserID          int64
	Reason          string
	RequestedAmount int64
	Status          DisputeStatus
	Response        string
	AdminUserID     *int64
	ResolvedAt      *time.Time
	CreatedAt       time.Time
}

// Resolved reports whether the dispute reached a terminal state.
func (d *PointDispute) Resolved() bool {
	return d.Status != DisputePending
}
