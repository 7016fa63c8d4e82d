package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/points"
)

// CreatePurchaseRequest buys a mall item with points. Zero cost marks a free
// item and records no ledger entry.
type CreatePurchaseRequest struct {
	UserID      int64           `json:"user_id"`
	ItemID      int64           `json:"item_id"`
	Cost        decimal.Decimal `json:"cost"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
}

// PurchaseResponse describes a purchase and its lifecycle state.
type PurchaseResponse struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	ItemID        int64           `json:"item_id"`
	PointsCost    decimal.Decimal `json:"points_cost"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewPurchaseResponse maps a purchase onto the wire shape.
func NewPurchaseResponse(p *model.PointPurchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		ItemID:        p.ItemID,
		PointsCost:    points.FormatForAPI(points.Storage(p.PointsCost)),
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
