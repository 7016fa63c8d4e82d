package usecase

import (
	"context"
	"fmt"
	"strconv"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/points"
)

// PurchaseService handles the ledger side of mall purchases: a purchase
// debits points on creation and a cancellation credits them back with a
// compensating entry. Catalog and stock management live elsewhere.
type PurchaseService struct {
	purchases repository.PurchaseRepository
	ledger    *LedgerEngine
}

// NewPurchaseService constructs PurchaseService.
func NewPurchaseService(purchases repository.PurchaseRepository, ledger *LedgerEngine) *PurchaseService {
	return &PurchaseService{purchases: purchases, ledger: ledger}
}

// Create records a purchase and spends its cost. A zero cost is a free item
// with no ledger entry. When the spend fails the purchase is cancelled so no
// pending row lingers without a backing transaction.
func (s *PurchaseService) Create(ctx context.Context, userID, itemID int64, cost points.Amount, description string) (*model.PointPurchase, error) {
	costStorage := cost.Storage()
	if costStorage < 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	purchase, err := s.purchases.Create(ctx, &model.PointPurchase{
		UserID:     userID,
		ItemID:     itemID,
		PointsCost: int64(costStorage),
		Status:     model.PurchasePending,
	})
	if err != nil {
		return nil, err
	}

	if costStorage == 0 {
		return purchase, nil
	}

	mut, err := s.ledger.Spend(ctx, SpendRequest{
		UserID:        userID,
		Amount:        costStorage,
		ReferenceID:   strconv.FormatInt(purchase.ID, 10),
		ReferenceType: "mall_purchase",
		Description:   description,
	})
	if err != nil {
		if cancelErr := s.purchases.Transition(ctx, purchase.ID, model.PurchasePending, model.PurchaseCancelled); cancelErr != nil {
			return nil, fmt.Errorf("spend failed (%w) and purchase cancel failed: %v", err, cancelErr)
		}
		return nil, err
	}

	if err := s.purchases.SetTransaction(ctx, purchase.ID, mut.Transaction.ID); err != nil {
		return nil, err
	}
	txID := mut.Transaction.ID
	purchase.TransactionID = &txID
	return purchase, nil
}

// Complete marks a pending purchase delivered. Delivery metadata only, no
// ledger effect.
func (s *PurchaseService) Complete(ctx context.Context, purchaseID int64) error {
	return s.purchases.Transition(ctx, purchaseID, model.PurchasePending, model.PurchaseCompleted)
}

// Cancel refunds a pending purchase with a compensating credit and marks it
// CANCELLED. The original SPEND row is never rewritten. The refund is keyed
// by the purchase id, so a retry after a partial failure converges instead
// of double-crediting.
func (s *PurchaseService) Cancel(ctx context.Context, purchaseID int64) error {
	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}
	if purchase.Finalized() {
		return domainErrors.ErrPurchaseFinalized
	}

	if purchase.TransactionID != nil {
		if _, err := s.ledger.Earn(ctx, EarnRequest{
			UserID:            purchase.UserID,
			Amount:            points.Storage(purchase.PointsCost),
			ReferenceID:       strconv.FormatInt(purchase.ID, 10),
			ReferenceType:     "purchase_refund",
			Description:       fmt.Sprintf("refund for cancelled purchase %d", purchase.ID),
			DisputeWindowDays: NoDisputeWindow,
		}); err != nil {
			return err
		}
	}

	return s.purchases.Transition(ctx, purchaseID, model.PurchasePending, model.PurchaseCancelled)
}

// Get returns one purchase.
func (s *PurchaseService) Get(ctx context.Context, purchaseID int64) (*model.PointPurchase, error) {
	return s.purchases.GetByID(ctx, purchaseID)
}
