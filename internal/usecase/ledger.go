package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/perkhub/pointsledger/internal/cache"
	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
	"github.com/perkhub/pointsledger/internal/notify"
	"github.com/perkhub/pointsledger/internal/points"
)

// NoDisputeWindow disables the dispute deadline on an earn, used for
// refund-style credits that are not contestable.
const NoDisputeWindow = -1

// EarnRequest describes a point credit. Amount carries its unit in its type.
// DisputeWindowDays of zero selects the engine default; NoDisputeWindow
// records no deadline.
type EarnRequest struct {
	UserID            int64
	CompanyID         *int64
	Amount            points.Amount
	ReferenceID       string
	ReferenceType     string
	Description       string
	DisputeWindowDays int
}

// SpendRequest describes a point debit. Amount is the positive cost.
type SpendRequest struct {
	UserID        int64
	Amount        points.Amount
	ReferenceID   string
	ReferenceType string
	Description   string
}

// AdjustRequest describes a signed manual or dispute correction.
type AdjustRequest struct {
	UserID        int64
	Amount        points.Amount
	ReferenceID   string
	ReferenceType string
	Description   string
}

// LedgerOptions tunes engine behaviour.
type LedgerOptions struct {
	DisputeWindowDays int
}

// LedgerEngine owns all balance mutations. Every mutation appends one
// immutable transaction row, updates the denormalized balance, and rechecks
// the tier in a single storage transaction; the engine layers idempotency
// semantics, the balance cache, and outbound notifications on top.
type LedgerEngine struct {
	transactions      repository.TransactionRepository
	users             repository.UserRepository
	levels            *LevelService
	balances          cache.BalanceCache
	notifier          notify.Notifier
	logger            *slog.Logger
	disputeWindowDays int
	now               func() time.Time
}

// NewLedgerEngine constructs LedgerEngine.
func NewLedgerEngine(
	transactions repository.TransactionRepository,
	users repository.UserRepository,
	levels *LevelService,
	balances cache.BalanceCache,
	notifier notify.Notifier,
	logger *slog.Logger,
	opts LedgerOptions,
) *LedgerEngine {
	windowDays := opts.DisputeWindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	return &LedgerEngine{
		transactions:      transactions,
		users:             users,
		levels:            levels,
		balances:          balances,
		notifier:          notifier,
		logger:            logger,
		disputeWindowDays: windowDays,
		now:               time.Now,
	}
}

// Balance returns the user's balance, preferring the cache, then the
// denormalized user row. Explicit sequence: check cache, miss, read,
// populate. The value may trail the ledger by at most the cache TTL.
func (e *LedgerEngine) Balance(ctx context.Context, userID int64) (points.Storage, error) {
	if balance, ok := e.balances.Get(userID); ok {
		return points.Storage(balance), nil
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	e.balances.Set(userID, user.Points)
	return points.Storage(user.Points), nil
}

// RecomputeBalance sums the ledger. This is the authoritative balance used
// for verification and repair; it never consults the cache.
func (e *LedgerEngine) RecomputeBalance(ctx context.Context, userID int64) (points.Storage, error) {
	sum, err := e.transactions.SumAmounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	return points.Storage(sum), nil
}

// Earn credits points. Calls repeating an already-recorded
// (user, reference, type) key return the existing transaction unchanged, so
// at-least-once upstream deliveries are safe to retry.
func (e *LedgerEngine) Earn(ctx context.Context, req EarnRequest) (*repository.MutationResult, error) {
	amount := req.Amount.Storage()
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	var deadline *time.Time
	switch {
	case req.DisputeWindowDays == NoDisputeWindow:
	case req.DisputeWindowDays > 0:
		d := e.now().AddDate(0, 0, req.DisputeWindowDays)
		deadline = &d
	default:
		d := e.now().AddDate(0, 0, e.disputeWindowDays)
		deadline = &d
	}

	res, err := e.transactions.Earn(ctx, repository.EarnParams{
		UserID:          req.UserID,
		CompanyID:       req.CompanyID,
		Amount:          int64(amount),
		ReferenceID:     req.ReferenceID,
		ReferenceType:   req.ReferenceType,
		Description:     req.Description,
		DisputeDeadline: deadline,
	}, e.levels.Resolver())
	if err != nil {
		return nil, err
	}

	if !res.Deduplicated {
		e.afterMutation(ctx, req.UserID, res)
		e.notifier.PointsEarned(ctx, req.UserID, res.Transaction.Amount, req.Description)
	}
	return res, nil
}

// Spend debits points, failing with ErrInsufficientBalance when the cost
// exceeds the current balance. Spends carry no idempotency guard; each call
// debits independently.
func (e *LedgerEngine) Spend(ctx context.Context, req SpendRequest) (*repository.MutationResult, error) {
	amount := req.Amount.Storage()
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	res, err := e.transactions.Spend(ctx, repository.SpendParams{
		UserID:        req.UserID,
		Amount:        int64(amount),
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Description:   req.Description,
	}, e.levels.Resolver())
	if err != nil {
		return nil, err
	}

	e.afterMutation(ctx, req.UserID, res)
	e.notifier.PointsSpent(ctx, req.UserID, -res.Transaction.Amount, req.Description)
	return res, nil
}

// Adjust applies a signed correction. Zero is rejected, and an adjustment
// may not drive the balance negative.
func (e *LedgerEngine) Adjust(ctx context.Context, req AdjustRequest) (*repository.MutationResult, error) {
	amount := req.Amount.Storage()
	if amount == 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	res, err := e.transactions.Adjust(ctx, repository.AdjustParams{
		UserID:        req.UserID,
		Amount:        int64(amount),
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Description:   req.Description,
	}, e.levels.Resolver())
	if err != nil {
		return nil, err
	}

	e.afterMutation(ctx, req.UserID, res)
	return res, nil
}

// Transactions returns the user's ledger entries newest first.
func (e *LedgerEngine) Transactions(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	return e.transactions.ListByUser(ctx, userID)
}

// Transaction returns a single ledger entry.
func (e *LedgerEngine) Transaction(ctx context.Context, id int64) (*model.PointTransaction, error) {
	return e.transactions.GetByID(ctx, id)
}

func (e *LedgerEngine) afterMutation(ctx context.Context, userID int64, res *repository.MutationResult) {
	e.balances.Invalidate(userID)
	if res.LevelChanged {
		e.notifier.LevelChanged(ctx, userID, res.OldLevelID, res.NewLevelID)
	}
}
