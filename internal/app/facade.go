package app

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	pkgAuth "github.com/perkhub/pointsledger/internal/pkg/auth"
	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// PointsFacade aggregates the business services behind one surface for the
// HTTP handlers, the auth middleware, and the background reconciler.
type PointsFacade struct {
	ledger       *usecase.LedgerEngine
	levels       *usecase.LevelService
	disputes     *usecase.DisputeService
	purchases    *usecase.PurchaseService
	consistency  *usecase.ConsistencyService
	tokens       pkgAuth.Strategy
	adminKeys    pkgAuth.KeyVerifier
	adminKeyHash string
}

// NewPointsFacade constructs PointsFacade.
func NewPointsFacade(
	ledger *usecase.LedgerEngine,
	levels *usecase.LevelService,
	disputes *usecase.DisputeService,
	purchases *usecase.PurchaseService,
	consistency *usecase.ConsistencyService,
	tokens pkgAuth.Strategy,
	adminKeys pkgAuth.KeyVerifier,
	adminKeyHash string,
) *PointsFacade {
	return &PointsFacade{
		ledger:       ledger,
		levels:       levels,
		disputes:     disputes,
		purchases:    purchases,
		consistency:  consistency,
		tokens:       tokens,
		adminKeys:    adminKeys,
		adminKeyHash: adminKeyHash,
	}
}

func (f *PointsFacade) ParseServiceToken(token string) (string, error) {
	return f.tokens.ParseToken(token)
}

func (f *PointsFacade) VerifyAdminKey(key string) error {
	return f.adminKeys.Compare(f.adminKeyHash, key)
}

// IssueServiceToken mints a token for the named caller, used by operational
// tooling rather than the request path.
func (f *PointsFacade) IssueServiceToken(caller string) (string, error) {
	return f.tokens.IssueToken(caller)
}

func (f *PointsFacade) Earn(ctx context.Context, req usecase.EarnRequest) (*repository.MutationResult, error) {
	return f.ledger.Earn(ctx, req)
}

func (f *PointsFacade) Spend(ctx context.Context, req usecase.SpendRequest) (*repository.MutationResult, error) {
	return f.ledger.Spend(ctx, req)
}

func (f *PointsFacade) Adjust(ctx context.Context, req usecase.AdjustRequest) (*repository.MutationResult, error) {
	return f.ledger.Adjust(ctx, req)
}

func (f *PointsFacade) Balance(ctx context.Context, userID int64) (points.Storage, error) {
	return f.ledger.Balance(ctx, userID)
}

func (f *PointsFacade) Transactions(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	return f.ledger.Transactions(ctx, userID)
}

// LevelForUser resolves the tier the user's current balance falls into. A
// nil level means no ladder tier covers the balance.
func (f *PointsFacade) LevelForUser(ctx context.Context, userID int64) (*model.UserLevel, error) {
	balance, err := f.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return f.levels.LevelFor(int64(balance)), nil
}

func (f *PointsFacade) CreateDispute(ctx context.Context, transactionID, userID int64, reason string, requested points.Amount) (*model.PointDispute, error) {
	return f.disputes.Create(ctx, transactionID, userID, reason, requested)
}

func (f *PointsFacade) ResolveDispute(ctx context.Context, disputeID, adminUserID int64, approved bool, response string, adjustment points.Amount) (*model.PointDispute, error) {
	return f.disputes.Resolve(ctx, disputeID, adminUserID, approved, response, adjustment)
}

func (f *PointsFacade) ExpiringDisputes(ctx context.Context, daysAhead int) ([]model.PointTransaction, error) {
	return f.disputes.ExpiringDisputes(ctx, daysAhead)
}

func (f *PointsFacade) CreatePurchase(ctx context.Context, userID, itemID int64, cost points.Amount, description string) (*model.PointPurchase, error) {
	return f.purchases.Create(ctx, userID, itemID, cost, description)
}

func (f *PointsFacade) Purchase(ctx context.Context, purchaseID int64) (*model.PointPurchase, error) {
	return f.purchases.Get(ctx, purchaseID)
}

func (f *PointsFacade) CompletePurchase(ctx context.Context, purchaseID int64) error {
	return f.purchases.Complete(ctx, purchaseID)
}

func (f *PointsFacade) CancelPurchase(ctx context.Context, purchaseID int64) error {
	return f.purchases.Cancel(ctx, purchaseID)
}

func (f *PointsFacade) RunConsistencyCheck(ctx context.Context) (*usecase.Report, error) {
	return f.consistency.RunFullCheck(ctx)
}

func (f *PointsFacade) FixUserBalance(ctx context.Context, userID int64) (*repository.RepairResult, error) {
	return f.consistency.FixBalance(ctx, userID)
}
