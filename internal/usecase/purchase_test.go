package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/points"
	testhelpers "github.com/perkhub/pointsledger/internal/test"
)

type purchaseFixture struct {
	*engineFixture
	purchases *testhelpers.PurchaseRepositoryStub
	service   *PurchaseService
}

func newPurchaseFixture(t *testing.T, startingBalance points.Storage) *purchaseFixture {
	t.Helper()
	base := newEngineFixture(t)
	if startingBalance > 0 {
		if _, err := base.engine.Earn(context.Background(), EarnRequest{
			UserID: 1, Amount: startingBalance, ReferenceID: "seed", ReferenceType: "seed",
		}); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	purchases := testhelpers.NewPurchaseRepositoryStub()
	return &purchaseFixture{
		engineFixture: base,
		purchases:     purchases,
		service:       NewPurchaseService(purchases, base.engine),
	}
}

func TestPurchaseCreateDebitsPoints(t *testing.T) {
	f := newPurchaseFixture(t, 200)

	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "coffee mug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if purchase.Status != model.PurchasePending {
		t.Fatalf("expected PENDING, got %s", purchase.Status)
	}
	if purchase.TransactionID == nil {
		t.Fatal("expected a linked transaction")
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 120 {
		t.Fatalf("expected balance 120, got %d", got)
	}

	tx, err := f.transactions.GetByID(context.Background(), *purchase.TransactionID)
	if err != nil {
		t.Fatalf("load linked transaction: %v", err)
	}
	if tx.Type != model.TransactionSpend || tx.ReferenceType != "mall_purchase" {
		t.Fatalf("unexpected linked transaction %+v", tx)
	}
}

func TestPurchaseCreateRejectsNegativeCost(t *testing.T) {
	f := newPurchaseFixture(t, 200)
	if _, err := f.service.Create(context.Background(), 1, 10, points.Storage(-5), "bad"); !errors.Is(err, domainErrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if len(f.purchases.Purchases) != 0 {
		t.Fatal("no purchase row must be created")
	}
}

func TestPurchaseCreateFreeItem(t *testing.T) {
	f := newPurchaseFixture(t, 0)

	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(0), "sticker")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if purchase.TransactionID != nil {
		t.Fatal("free item must have no ledger entry")
	}
	if got := len(f.transactions.ByUser[1]); got != 0 {
		t.Fatalf("expected empty ledger, got %d rows", got)
	}
}

func TestPurchaseCreateInsufficientBalanceCancels(t *testing.T) {
	f := newPurchaseFixture(t, 50)

	_, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "too expensive")
	if !errors.Is(err, domainErrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	if len(f.purchases.Purchases) != 1 {
		t.Fatalf("expected the pending row to remain, got %d", len(f.purchases.Purchases))
	}
	for _, p := range f.purchases.Purchases {
		if p.Status != model.PurchaseCancelled {
			t.Fatalf("expected CANCELLED, got %s", p.Status)
		}
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 50 {
		t.Fatalf("balance must be unchanged, got %d", got)
	}
}

func TestPurchaseCompleteOnlyFromPending(t *testing.T) {
	f := newPurchaseFixture(t, 200)
	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "mug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.service.Complete(context.Background(), purchase.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.service.Complete(context.Background(), purchase.ID); !errors.Is(err, domainErrors.ErrPurchaseFinalized) {
		t.Fatalf("expected finalized, got %v", err)
	}
}

func TestPurchaseCancelRefunds(t *testing.T) {
	f := newPurchaseFixture(t, 200)
	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "mug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.service.Cancel(context.Background(), purchase.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 200 {
		t.Fatalf("expected balance restored to 200, got %d", got)
	}

	stored, err := f.service.Get(context.Background(), purchase.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != model.PurchaseCancelled {
		t.Fatalf("expected CANCELLED, got %s", stored.Status)
	}

	var refund *model.PointTransaction
	for i, tx := range f.transactions.ByUser[1] {
		if tx.ReferenceType == "purchase_refund" {
			refund = &f.transactions.ByUser[1][i]
		}
	}
	if refund == nil {
		t.Fatal("expected a refund entry")
	}
	if refund.Type != model.TransactionEarn || refund.Amount != 80 {
		t.Fatalf("unexpected refund row %+v", refund)
	}
	if refund.DisputeDeadline != nil {
		t.Fatal("refund credit must not be disputable")
	}

	// The original SPEND row is untouched.
	spend, err := f.transactions.GetByID(context.Background(), *purchase.TransactionID)
	if err != nil {
		t.Fatalf("load spend: %v", err)
	}
	if spend.Amount != -80 {
		t.Fatalf("original spend must be unchanged, got %d", spend.Amount)
	}
}

func TestPurchaseCancelFinalizedFails(t *testing.T) {
	f := newPurchaseFixture(t, 200)
	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "mug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.service.Complete(context.Background(), purchase.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := f.service.Cancel(context.Background(), purchase.ID); !errors.Is(err, domainErrors.ErrPurchaseFinalized) {
		t.Fatalf("expected finalized, got %v", err)
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 120 {
		t.Fatalf("no refund must be issued, got balance %d", got)
	}
}

func TestPurchaseCancelRetryConverges(t *testing.T) {
	f := newPurchaseFixture(t, 200)
	purchase, err := f.service.Create(context.Background(), 1, 10, points.Storage(80), "mug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Simulate a cancel that credited the refund but crashed before the
	// status transition: the purchase is still PENDING with the refund
	// already in the ledger. A retry must not double-credit.
	if _, err := f.engine.Earn(context.Background(), EarnRequest{
		UserID:            1,
		Amount:            points.Storage(purchase.PointsCost),
		ReferenceID:       "1",
		ReferenceType:     "purchase_refund",
		DisputeWindowDays: NoDisputeWindow,
	}); err != nil {
		t.Fatalf("simulate partial cancel: %v", err)
	}

	if err := f.service.Cancel(context.Background(), purchase.ID); err != nil {
		t.Fatalf("retry cancel: %v", err)
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 200 {
		t.Fatalf("retry must converge to 200, got %d", got)
	}
}
