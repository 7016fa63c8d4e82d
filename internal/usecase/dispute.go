package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/points"
)

// DisputeService manages the bounded-time objection workflow over EARN
// transactions. Disputes move PENDING to APPROVED or REJECTED exactly once;
// an approval pays out through a fresh ADJUST entry, the contested row is
// never touched.
type DisputeService struct {
	disputes     repository.DisputeRepository
	transactions repository.TransactionRepository
	ledger       *LedgerEngine
	now          func() time.Time
}

// NewDisputeService constructs DisputeService.
func NewDisputeService(disputes repository.DisputeRepository, transactions repository.TransactionRepository, ledger *LedgerEngine) *DisputeService {
	return &DisputeService{
		disputes:     disputes,
		transactions: transactions,
		ledger:       ledger,
		now:          time.Now,
	}
}

// CanCreate checks dispute eligibility and reports the failing rule.
func (s *DisputeService) CanCreate(ctx context.Context, transactionID, userID int64) (bool, string, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, "transaction not found", nil
		}
		return false, "", err
	}

	if tx.UserID != userID {
		return false, "transaction belongs to another user", nil
	}
	if tx.Type != model.TransactionEarn {
		return false, "only earn transactions can be disputed", nil
	}
	if tx.DisputeDeadline == nil {
		return false, "transaction has no dispute window", nil
	}
	if s.now().After(*tx.DisputeDeadline) {
		return false, "dispute window expired", nil
	}

	if _, err := s.disputes.GetByTransaction(ctx, transactionID); err == nil {
		return false, "transaction already disputed", nil
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return false, "", err
	}

	return true, "", nil
}

// Create files a PENDING dispute. A nil requested amount defaults to the
// contested transaction's amount.
func (s *DisputeService) Create(ctx context.Context, transactionID, userID int64, reason string, requested points.Amount) (*model.PointDispute, error) {
	ok, why, err := s.CanCreate(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrDisputeIneligible, why)
	}

	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	requestedAmount := tx.Amount
	if requested != nil {
		requestedAmount = int64(requested.Storage())
	}

	dispute, err := s.disputes.Create(ctx, &model.PointDispute{
		TransactionID:   transactionID,
		UserID:          userID,
		Reason:          reason,
		RequestedAmount: requestedAmount,
		Status:          model.DisputePending,
	})
	if err != nil {
		// The unique index catches a concurrent filing the eligibility
		// read missed.
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: transaction already disputed", domainErrors.ErrDisputeIneligible)
		}
		return nil, err
	}
	return dispute, nil
}

// Resolve closes a PENDING dispute with admin attribution. Approval with a
// non-zero adjustment credits or debits the user via the ledger, keyed by the
// dispute id. Re-resolution fails with ErrDisputeAlreadyResolved and emits
// no further ledger entries.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, adminUserID int64, approved bool, response string, adjustment points.Amount) (*model.PointDispute, error) {
	status := model.DisputeRejected
	if approved {
		status = model.DisputeApproved
	}

	dispute, err := s.disputes.Resolve(ctx, disputeID, status, adminUserID, response)
	if err != nil {
		return nil, err
	}

	// The status commit and the payout are separate transactions. A payout
	// failure leaves the dispute APPROVED without a ledger entry; the error
	// below carries the dispute id so an admin can adjust manually.
	if approved && adjustment != nil && adjustment.Storage() != 0 {
		if _, err := s.ledger.Adjust(ctx, AdjustRequest{
			UserID:        dispute.UserID,
			Amount:        adjustment,
			ReferenceID:   strconv.FormatInt(dispute.ID, 10),
			ReferenceType: "dispute_adjustment",
			Description:   fmt.Sprintf("dispute %d adjustment", dispute.ID),
		}); err != nil {
			return nil, fmt.Errorf("dispute %d resolved but adjustment failed: %w", dispute.ID, err)
		}
	}
	return dispute, nil
}

// ExpiringDisputes returns EARN transactions whose dispute window closes
// within daysAhead and which have no dispute filed yet. Read-only.
func (s *DisputeService) ExpiringDisputes(ctx context.Context, daysAhead int) ([]model.PointTransaction, error) {
	now := s.now()
	return s.transactions.ListUndisputedEarnExpiring(ctx, now, now.AddDate(0, 0, daysAhead))
}
