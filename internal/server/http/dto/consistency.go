package dto

import (
	"time"

	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// BalanceMismatchEntry reports one cache-versus-ledger drift.
type BalanceMismatchEntry struct {
	UserID   int64 `json:"user_id"`
	Cached   int64 `json:"cached"`
	Computed int64 `json:"computed"`
}

// SequenceBreakEntry reports one running-sum violation.
type SequenceBreakEntry struct {
	UserID        int64 `json:"user_id"`
	TransactionID int64 `json:"transaction_id"`
	Expected      int64 `json:"expected"`
	Actual        int64 `json:"actual"`
}

// NegativeBalanceEntry reports one entry that left the balance below zero.
type NegativeBalanceEntry struct {
	UserID        int64 `json:"user_id"`
	TransactionID int64 `json:"transaction_id"`
	BalanceAfter  int64 `json:"balance_after"`
}

// ConsistencyReportResponse is the outcome of one full audit run.
type ConsistencyReportResponse struct {
	StartedAt         time.Time              `json:"started_at"`
	DurationMS        int64                  `json:"duration_ms"`
	Clean             bool                   `json:"clean"`
	BalanceMismatches []BalanceMismatchEntry `json:"balance_mismatches"`
	SequenceBreaks    []SequenceBreakEntry   `json:"sequence_breaks"`
	NegativeBalances  []NegativeBalanceEntry `json:"negative_balances"`
	OrphanedDisputes  []int64                `json:"orphaned_disputes"`
	OrphanedPurchases []int64                `json:"orphaned_purchases"`
}

// RepairResponse reports an applied balance repair.
type RepairResponse struct {
	UserID       int64 `json:"user_id"`
	OldPoints    int64 `json:"old_points"`
	NewPoints    int64 `json:"new_points"`
	LevelChanged bool  `json:"level_changed"`
}

// NewConsistencyReportResponse maps an audit report onto the wire shape.
func NewConsistencyReportResponse(r *usecase.Report) ConsistencyReportResponse {
	resp := ConsistencyReportResponse{
		StartedAt:         r.StartedAt,
		DurationMS:        r.Duration.Milliseconds(),
		Clean:             r.Clean(),
		BalanceMismatches: make([]BalanceMismatchEntry, 0, len(r.BalanceMismatches)),
		SequenceBreaks:    make([]SequenceBreakEntry, 0, len(r.SequenceBreaks)),
		NegativeBalances:  make([]NegativeBalanceEntry, 0, len(r.NegativeBalances)),
		OrphanedDisputes:  append([]int64{}, r.Orphans.DisputeIDs...),
		OrphanedPurchases: append([]int64{}, r.Orphans.PurchaseIDs...),
	}
	for _, m := range r.BalanceMismatches {
		resp.BalanceMismatches = append(resp.BalanceMismatches, BalanceMismatchEntry{UserID: m.UserID, Cached: m.Cached, Computed: m.Computed})
	}
	for _, b := range r.SequenceBreaks {
		resp.SequenceBreaks = append(resp.SequenceBreaks, SequenceBreakEntry{UserID: b.UserID, TransactionID: b.TransactionID, Expected: b.Expected, Actual: b.Actual})
	}
	for _, n := range r.NegativeBalances {
		resp.NegativeBalances = append(resp.NegativeBalances, NegativeBalanceEntry{UserID: n.UserID, TransactionID: n.TransactionID, BalanceAfter: n.BalanceAfter})
	}
	return resp
}

// NewRepairResponse maps a repair outcome onto the wire shape.
func NewRepairResponse(r *repository.RepairResult) RepairResponse {
	return RepairResponse{
		UserID:       r.UserID,
		OldPoints:    r.OldPoints,
		NewPoints:    r.NewPoints,
		LevelChanged: r.LevelChanged,
	}
}
