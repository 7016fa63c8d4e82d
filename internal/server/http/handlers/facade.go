package handlers

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// AuthFacade describes the credential checks the middleware runs.
type AuthFacade interface {
	ParseServiceToken(token string) (string, error)
	VerifyAdminKey(key string) error
}

// LedgerFacade encapsulates ledger operations exposed via HTTP.
type LedgerFacade interface {
	Earn(ctx context.Context, req usecase.EarnRequest) (*repository.MutationResult, error)
	Spend(ctx context.Context, req usecase.SpendRequest) (*repository.MutationResult, error)
	Balance(ctx context.Context, userID int64) (points.Storage, error)
	Transactions(ctx context.Context, userID int64) ([]model.PointTransaction, error)
	LevelForUser(ctx context.Context, userID int64) (*model.UserLevel, error)
}

// DisputeFacade provides the dispute filing workflow.
type DisputeFacade interface {
	CreateDispute(ctx context.Context, transactionID, userID int64, reason string, requested points.Amount) (*model.PointDispute, error)
	ExpiringDisputes(ctx context.Context, daysAhead int) ([]model.PointTransaction, error)
}

// PurchaseFacade provides the mall purchase lifecycle.
type PurchaseFacade interface {
	CreatePurchase(ctx context.Context, userID, itemID int64, cost points.Amount, description string) (*model.PointPurchase, error)
	Purchase(ctx context.Context, purchaseID int64) (*model.PointPurchase, error)
	CompletePurchase(ctx context.Context, purchaseID int64) error
	CancelPurchase(ctx context.Context, purchaseID int64) error
}

// AdminFacade groups the privileged operations behind the admin key.
type AdminFacade interface {
	Adjust(ctx context.Context, req usecase.AdjustRequest) (*repository.MutationResult, error)
	ResolveDispute(ctx context.Context, disputeID, adminUserID int64, approved bool, response string, adjustment points.Amount) (*model.PointDispute, error)
	RunConsistencyCheck(ctx context.Context) (*usecase.Report, error)
	FixUserBalance(ctx context.Context, userID int64) (*repository.RepairResult, error)
}

// PointsFacade aggregates the full set of operations used across handlers.
type PointsFacade interface {
	AuthFacade
	LedgerFacade
	DisputeFacade
	PurchaseFacade
	AdminFacade
}
