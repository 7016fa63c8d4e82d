package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/points"
)

// CreateDisputeRequest files an objection against an earn entry.
// RequestedAmount is optional and defaults to the contested amount.
type CreateDisputeRequest struct {
	TransactionID   int64            `json:"transaction_id"`
	UserID          int64            `json:"user_id"`
	Reason          string           `json:"reason"`
	RequestedAmount *decimal.Decimal `json:"requested_amount,omitempty"`
	Unit            string           `json:"unit"`
}

// ResolveDisputeRequest settles a pending dispute. Adjustment is the signed
// correction applied on approval; zero applies none.
type ResolveDisputeRequest struct {
	AdminUserID int64           `json:"admin_user_id"`
	Approved    bool            `json:"approved"`
	Response    string          `json:"response"`
	Adjustment  decimal.Decimal `json:"adjustment"`
	Unit        string          `json:"unit"`
}

// DisputeResponse describes a dispute and its workflow state.
type DisputeResponse struct {
	ID              int64           `json:"id"`
	TransactionID   int64           `json:"transaction_id"`
	UserID          int64           `json:"user_id"`
	Reason          string          `json:"reason"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Status          string          `json:"status"`
	Response        string          `json:"response,omitempty"`
	AdminUserID     *int64          `json:"admin_user_id,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewDisputeResponse maps a dispute onto the wire shape.
func NewDisputeResponse(d *model.PointDispute) DisputeResponse {
	return DisputeResponse{
		ID:              d.ID,
		TransactionID:   d.TransactionID,
		UserID:          d.UserID,
		Reason:          d.Reason,
		RequestedAmount: points.FormatForAPI(points.Storage(d.RequestedAmount)),
		Status:          string(d.Status),
		Response:        d.Response,
		AdminUserID:     d.AdminUserID,
		ResolvedAt:      d.ResolvedAt,
		CreatedAt:       d.CreatedAt,
	}
}
