package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/points"
)

// Amount units accepted on the wire. Display values carry one decimal place,
// storage values are raw ledger integers.
const (
	UnitDisplay = "display"
	UnitStorage = "storage"
)

var (
	// ErrUnknownUnit reports an amount unit outside the accepted set.
	ErrUnknownUnit = errors.New("unknown amount unit")
	// ErrFractionalStorage reports a storage amount with a fractional part.
	ErrFractionalStorage = errors.New("storage amount must be an integer")
)

// ParseAmount converts a wire value and unit into a typed amount. An empty
// unit defaults to display, matching what human-facing callers send.
func ParseAmount(value decimal.Decimal, unit string) (points.Amount, error) {
	switch unit {
	case UnitDisplay, "":
		return points.NewDisplay(value), nil
	case UnitStorage:
		if !value.IsInteger() {
			return nil, ErrFractionalStorage
		}
		return points.Storage(value.IntPart()), nil
	default:
		return nil, ErrUnknownUnit
	}
}

// EarnRequest describes a point credit payload.
type EarnRequest struct {
	UserID            int64           `json:"user_id"`
	CompanyID         *int64          `json:"company_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Unit              string          `json:"unit"`
	ReferenceID       string          `json:"reference_id"`
	ReferenceType     string          `json:"reference_type"`
	Description       string          `json:"description"`
	DisputeWindowDays int             `json:"dispute_window_days"`
}

// SpendRequest describes a point debit payload.
type SpendRequest struct {
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Unit          string          `json:"unit"`
	ReferenceID   string          `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	Description   string          `json:"description"`
}

// AdjustRequest describes a signed manual correction payload.
type AdjustRequest struct {
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Unit          string          `json:"unit"`
	ReferenceID   string          `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	Description   string          `json:"description"`
}

// MutationResponse reports the outcome of a ledger mutation.
type MutationResponse struct {
	TransactionID int64           `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Deduplicated  bool            `json:"deduplicated,omitempty"`
	LevelChanged  bool            `json:"level_changed,omitempty"`
}

// BalanceResponse reports a user's current balance in both units.
type BalanceResponse struct {
	UserID         int64           `json:"user_id"`
	Balance        decimal.Decimal `json:"balance"`
	BalanceStorage int64           `json:"balance_storage"`
}

// TransactionResponse describes one ledger entry.
type TransactionResponse struct {
	ID              int64           `json:"id"`
	CompanyID       *int64          `json:"company_id,omitempty"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	Description     string          `json:"description,omitempty"`
	DisputeDeadline *time.Time      `json:"dispute_deadline,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LevelResponse describes the tier a balance falls into.
type LevelResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	MinPoints int64  `json:"min_points"`
	MaxPoints *int64 `json:"max_points,omitempty"`
	Benefits  string `json:"benefits,omitempty"`
}

// NewMutationResponse maps a mutation outcome onto the wire shape.
func NewMutationResponse(tx *model.PointTransaction, deduplicated, levelChanged bool) MutationResponse {
	return MutationResponse{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        points.FormatForAPI(points.Storage(tx.Amount)),
		BalanceAfter:  points.FormatForAPI(points.Storage(tx.BalanceAfter)),
		Deduplicated:  deduplicated,
		LevelChanged:  levelChanged,
	}
}

// NewTransactionResponse maps a ledger entry onto the wire shape.
func NewTransactionResponse(tx model.PointTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		CompanyID:       tx.CompanyID,
		Type:            string(tx.Type),
		Amount:          points.FormatForAPI(points.Storage(tx.Amount)),
		BalanceAfter:    points.FormatForAPI(points.Storage(tx.BalanceAfter)),
		ReferenceID:     tx.ReferenceID,
		ReferenceType:   tx.ReferenceType,
		Description:     tx.Description,
		DisputeDeadline: tx.DisputeDeadline,
		CreatedAt:       tx.CreatedAt,
	}
}
