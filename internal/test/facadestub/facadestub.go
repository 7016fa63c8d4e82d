// Package facadestub holds facade-level stubs for HTTP and worker tests.
// It lives apart from the repository stubs because it depends on usecase
// types; keeping it in the parent package would cycle with the usecase
// package's own tests.
package facadestub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// AuthFacadeStub provides controllable credential checks.
type AuthFacadeStub struct {
	ParseFn  func(string) (string, error)
	VerifyFn func(string) error
}

// ParseServiceToken delegates to provided function or accepts any token.
func (s AuthFacadeStub) ParseServiceToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return "svc-test", nil
}

// VerifyAdminKey delegates to provided function or accepts any key.
func (s AuthFacadeStub) VerifyAdminKey(key string) error {
	if s.VerifyFn != nil {
		return s.VerifyFn(key)
	}
	return nil
}

// LedgerFacadeStub provides controllable behaviour for ledger endpoints.
type LedgerFacadeStub struct {
	EarnFn         func(context.Context, usecase.EarnRequest) (*repository.MutationResult, error)
	SpendFn        func(context.Context, usecase.SpendRequest) (*repository.MutationResult, error)
	BalanceFn      func(context.Context, int64) (points.Storage, error)
	TransactionsFn func(context.Context, int64) ([]model.PointTransaction, error)
	LevelFn        func(context.Context, int64) (*model.UserLevel, error)
}

// Earn delegates to provided function or records a default credit.
func (s LedgerFacadeStub) Earn(ctx context.Context, req usecase.EarnRequest) (*repository.MutationResult, error) {
	if s.EarnFn != nil {
		return s.EarnFn(ctx, req)
	}
	amount := int64(req.Amount.Storage())
	return &repository.MutationResult{
		Transaction: &model.PointTransaction{ID: 1, UserID: req.UserID, Type: model.TransactionEarn, Amount: amount, BalanceAfter: amount, CreatedAt: time.Unix(0, 0)},
		NewBalance:  amount,
	}, nil
}

// Spend delegates to provided function or records a default debit.
func (s LedgerFacadeStub) Spend(ctx context.Context, req usecase.SpendRequest) (*repository.MutationResult, error) {
	if s.SpendFn != nil {
		return s.SpendFn(ctx, req)
	}
	amount := int64(req.Amount.Storage())
	return &repository.MutationResult{
		Transaction: &model.PointTransaction{ID: 2, UserID: req.UserID, Type: model.TransactionSpend, Amount: -amount, CreatedAt: time.Unix(0, 0)},
	}, nil
}

// Balance returns the configured balance or a fixed default.
func (s LedgerFacadeStub) Balance(ctx context.Context, userID int64) (points.Storage, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, userID)
	}
	return points.Storage(100), nil
}

// Transactions returns predefined entries for given user.
func (s LedgerFacadeStub) Transactions(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	if s.TransactionsFn != nil {
		return s.TransactionsFn(ctx, userID)
	}
	return []model.PointTransaction{{ID: 1, UserID: userID, Type: model.TransactionEarn, Amount: 100, BalanceAfter: 100, CreatedAt: time.Unix(0, 0)}}, nil
}

// LevelForUser returns the configured tier or a fixed default.
func (s LedgerFacadeStub) LevelForUser(ctx context.Context, userID int64) (*model.UserLevel, error) {
	if s.LevelFn != nil {
		return s.LevelFn(ctx, userID)
	}
	return &model.UserLevel{ID: 1, Name: "Bronze"}, nil
}

// DisputeFacadeStub simulates dispute operations.
type DisputeFacadeStub struct {
	CreateFn   func(context.Context, int64, int64, string, points.Amount) (*model.PointDispute, error)
	ExpiringFn func(context.Context, int) ([]model.PointTransaction, error)
}

// CreateDispute delegates to provided function or files a default dispute.
func (s DisputeFacadeStub) CreateDispute(ctx context.Context, transactionID, userID int64, reason string, requested points.Amount) (*model.PointDispute, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, transactionID, userID, reason, requested)
	}
	return &model.PointDispute{ID: 1, TransactionID: transactionID, UserID: userID, Reason: reason, Status: model.DisputePending, CreatedAt: time.Unix(0, 0)}, nil
}

// ExpiringDisputes returns preconfigured entries.
func (s DisputeFacadeStub) ExpiringDisputes(ctx context.Context, daysAhead int) ([]model.PointTransaction, error) {
	if s.ExpiringFn != nil {
		return s.ExpiringFn(ctx, daysAhead)
	}
	return nil, nil
}

// PurchaseFacadeStub simulates mall purchase operations.
type PurchaseFacadeStub struct {
	CreateFn   func(context.Context, int64, int64, points.Amount, string) (*model.PointPurchase, error)
	GetFn      func(context.Context, int64) (*model.PointPurchase, error)
	CompleteFn func(context.Context, int64) error
	CancelFn   func(context.Context, int64) error
}

// CreatePurchase delegates to provided function or records a default purchase.
func (s PurchaseFacadeStub) CreatePurchase(ctx context.Context, userID, itemID int64, cost points.Amount, description string) (*model.PointPurchase, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, userID, itemID, cost, description)
	}
	return &model.PointPurchase{ID: 1, UserID: userID, ItemID: itemID, PointsCost: int64(cost.Storage()), Status: model.PurchasePending, CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0)}, nil
}

// Purchase returns the configured purchase or a fixed default.
func (s PurchaseFacadeStub) Purchase(ctx context.Context, purchaseID int64) (*model.PointPurchase, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, purchaseID)
	}
	return &model.PointPurchase{ID: purchaseID, Status: model.PurchasePending, CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0)}, nil
}

// CompletePurchase executes the configured handler.
func (s PurchaseFacadeStub) CompletePurchase(ctx context.Context, purchaseID int64) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, purchaseID)
	}
	return nil
}

// CancelPurchase executes the configured handler.
func (s PurchaseFacadeStub) CancelPurchase(ctx context.Context, purchaseID int64) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, purchaseID)
	}
	return nil
}

// AdminFacadeStub simulates privileged operations.
type AdminFacadeStub struct {
	AdjustFn  func(context.Context, usecase.AdjustRequest) (*repository.MutationResult, error)
	ResolveFn func(context.Context, int64, int64, bool, string, points.Amount) (*model.PointDispute, error)
	ReportFn  func(context.Context) (*usecase.Report, error)
	FixFn     func(context.Context, int64) (*repository.RepairResult, error)
}

// Adjust delegates to provided function or records a default correction.
func (s AdminFacadeStub) Adjust(ctx context.Context, req usecase.AdjustRequest) (*repository.MutationResult, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, req)
	}
	amount := int64(req.Amount.Storage())
	return &repository.MutationResult{
		Transaction: &model.PointTransaction{ID: 3, UserID: req.UserID, Type: model.TransactionAdjust, Amount: amount, CreatedAt: time.Unix(0, 0)},
	}, nil
}

// ResolveDispute delegates to provided function or approves by default.
func (s AdminFacadeStub) ResolveDispute(ctx context.Context, disputeID, adminUserID int64, approved bool, response string, adjustment points.Amount) (*model.PointDispute, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, disputeID, adminUserID, approved, response, adjustment)
	}
	status := model.DisputeRejected
	if approved {
		status = model.DisputeApproved
	}
	return &model.PointDispute{ID: disputeID, Status: status, AdminUserID: &adminUserID, Response: response, CreatedAt: time.Unix(0, 0)}, nil
}

// RunConsistencyCheck returns the configured report or a clean default.
func (s AdminFacadeStub) RunConsistencyCheck(ctx context.Context) (*usecase.Report, error) {
	if s.ReportFn != nil {
		return s.ReportFn(ctx)
	}
	return &usecase.Report{StartedAt: time.Unix(0, 0)}, nil
}

// FixUserBalance delegates to provided function or reports a no-op repair.
func (s AdminFacadeStub) FixUserBalance(ctx context.Context, userID int64) (*repository.RepairResult, error) {
	if s.FixFn != nil {
		return s.FixFn(ctx, userID)
	}
	return &repository.RepairResult{UserID: userID}, nil
}

// PointsFacadeStub aggregates the per-concern stubs into the full facade
// surface used by the router.
type PointsFacadeStub struct {
	AuthFacadeStub
	LedgerFacadeStub
	DisputeFacadeStub
	PurchaseFacadeStub
	AdminFacadeStub
}

// ReconcilerFacadeStub mimics reconciler interactions with the application
// facade, counting runs.
type ReconcilerFacadeStub struct {
	ReportFn func(context.Context) (*usecase.Report, error)
	runs     int32
}

// RunConsistencyCheck counts invocations and delegates to ReportFn when set.
func (s *ReconcilerFacadeStub) RunConsistencyCheck(ctx context.Context) (*usecase.Report, error) {
	atomic.AddInt32(&s.runs, 1)
	if s.ReportFn != nil {
		return s.ReportFn(ctx)
	}
	return &usecase.Report{StartedAt: time.Unix(0, 0)}, nil
}

// Runs reports how many checks ran.
func (s *ReconcilerFacadeStub) Runs() int {
	return int(atomic.LoadInt32(&s.runs))
}
