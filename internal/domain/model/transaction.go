package model

import "time"

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionEarn      TransactionType = "EARN"
	TransactionSpend     TransactionType = "SPEND"
	TransactionAdjust    TransactionType = "ADJUST"
	TransactionObjection TransactionType = "OBJECTION"
)

// KnownTransactionType reports whether t belongs to the closed type set.
func KnownTransactionType(t TransactionType) bool {
	switch t {
	case TransactionEarn, TransactionSpend, TransactionAdjust, TransactionObjection:
		return true
	}
	return false
}

// PointTransaction is a single immutable ledger entry. Amounts are signed
// storage-unit integers; corrections are new rows, never edits.
type PointTransaction struct {
	ID              int64
	UserID          int64
	CompanyID       *int64
	Type            TransactionType
	Amount          int64
	BalanceAfter    int64
	ReferenceID     string
	ReferenceType   string
	Description     string
	DisputeDeadline *time.Time
	CreatedAt       time.Time
}

// Disputable reports whether the entry can still be contested at the given
// moment: only EARN rows with an unexpired dispute deadline qualify.
func (t *PointTransaction) Disputable(now time.Time) bool {
	if t.Type != TransactionEarn || t.DisputeDeadline == nil {
		return false
	}
	return !now.After(*t.DisputeDeadline)
}
