package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/perkhub/pointsledger/internal/cache"
	"github.com/perkhub/pointsledger/internal/domain/repository"
)

// BalanceMismatch reports drift between the cached balance and the ledger.
type BalanceMismatch struct {
	UserID   int64
	Cached   int64
	Computed int64
}

// SequenceBreak reports a balance_after that does not continue the running
// sum of the user's ledger.
type SequenceBreak struct {
	UserID        int64
	TransactionID int64
	Expected      int64
	Actual        int64
}

// NegativeBalanceIssue reports a ledger entry that left the balance below
// zero, which the mutation guards should make impossible.
type NegativeBalanceIssue struct {
	UserID        int64
	TransactionID int64
	BalanceAfter  int64
}

// OrphanReport lists disputes and purchases whose transaction reference no
// longer resolves.
type OrphanReport struct {
	DisputeIDs  []int64
	PurchaseIDs []int64
}

// Report aggregates one full consistency run.
type Report struct {
	StartedAt        time.Time
	Duration         time.Duration
	BalanceDuration  time.Duration
	SequenceDuration time.Duration
	NegativeDuration time.Duration
	OrphanDuration   time.Duration

	BalanceMismatches []BalanceMismatch
	SequenceBreaks    []SequenceBreak
	NegativeBalances  []NegativeBalanceIssue
	Orphans           OrphanReport
}

// Clean reports whether the run found nothing.
func (r *Report) Clean() bool {
	return len(r.BalanceMismatches) == 0 &&
		len(r.SequenceBreaks) == 0 &&
		len(r.NegativeBalances) == 0 &&
		len(r.Orphans.DisputeIDs) == 0 &&
		len(r.Orphans.PurchaseIDs) == 0
}

// ConsistencyService audits ledger and cache drift out-of-band. Checks only
// report; repairs happen through explicit calls, and the ledger always wins.
// Full scans page through users in bounded batches and honour context
// cancellation between batches, so the job never holds one long transaction
// and can be interrupted and resumed.
type ConsistencyService struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
	consistency  repository.ConsistencyRepository
	purchases    repository.PurchaseRepository
	levels       *LevelService
	balances     cache.BalanceCache
	logger       *slog.Logger
	batchSize    int
}

// NewConsistencyService constructs ConsistencyService.
func NewConsistencyService(
	users repository.UserRepository,
	transactions repository.TransactionRepository,
	consistency repository.ConsistencyRepository,
	purchases repository.PurchaseRepository,
	levels *LevelService,
	balances cache.BalanceCache,
	logger *slog.Logger,
	batchSize int,
) *ConsistencyService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ConsistencyService{
		users:        users,
		transactions: transactions,
		consistency:  consistency,
		purchases:    purchases,
		levels:       levels,
		balances:     balances,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// CheckBalances compares cached balances against ledger sums, for one user
// or for everyone.
func (s *ConsistencyService) CheckBalances(ctx context.Context, userID *int64) ([]BalanceMismatch, error) {
	if userID != nil {
		mismatch, err := s.checkUserBalance(ctx, *userID)
		if err != nil {
			return nil, err
		}
		if mismatch == nil {
			return nil, nil
		}
		return []BalanceMismatch{*mismatch}, nil
	}

	var mismatches []BalanceMismatch
	err := s.forEachUser(ctx, func(id int64) error {
		mismatch, err := s.checkUserBalance(ctx, id)
		if err != nil {
			return err
		}
		if mismatch != nil {
			mismatches = append(mismatches, *mismatch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mismatches, nil
}

// CheckSequences replays every user's ledger in creation order and verifies
// the running-sum invariant on balance_after. After a break the replay
// continues from the recorded value so one corruption is reported once, not
// once per following row.
func (s *ConsistencyService) CheckSequences(ctx context.Context) ([]SequenceBreak, error) {
	var breaks []SequenceBreak
	err := s.forEachUser(ctx, func(id int64) error {
		txs, err := s.transactions.ListByUserAsc(ctx, id)
		if err != nil {
			return err
		}
		running := int64(0)
		for _, tx := range txs {
			expected := running + tx.Amount
			if tx.BalanceAfter != expected {
				breaks = append(breaks, SequenceBreak{
					UserID:        id,
					TransactionID: tx.ID,
					Expected:      expected,
					Actual:        tx.BalanceAfter,
				})
			}
			running = tx.BalanceAfter
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return breaks, nil
}

// CheckNegativeBalances finds ledger rows with balance_after < 0. A safety
// net: the spend/adjust guards should make this set empty.
func (s *ConsistencyService) CheckNegativeBalances(ctx context.Context) ([]NegativeBalanceIssue, error) {
	entries, err := s.consistency.NegativeBalanceEntries(ctx)
	if err != nil {
		return nil, err
	}
	issues := make([]NegativeBalanceIssue, 0, len(entries))
	for _, tx := range entries {
		issues = append(issues, NegativeBalanceIssue{
			UserID:        tx.UserID,
			TransactionID: tx.ID,
			BalanceAfter:  tx.BalanceAfter,
		})
	}
	return issues, nil
}

// CheckOrphans finds disputes and purchases pointing at missing transactions.
func (s *ConsistencyService) CheckOrphans(ctx context.Context) (OrphanReport, error) {
	disputeIDs, err := s.consistency.OrphanedDisputeIDs(ctx)
	if err != nil {
		return OrphanReport{}, err
	}
	purchaseIDs, err := s.purchases.ListOrphaned(ctx)
	if err != nil {
		return OrphanReport{}, err
	}
	return OrphanReport{DisputeIDs: disputeIDs, PurchaseIDs: purchaseIDs}, nil
}

// RunFullCheck executes every audit with timing. Intended for the scheduled
// out-of-band job, never the request path.
func (s *ConsistencyService) RunFullCheck(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	start := time.Now()
	mismatches, err := s.CheckBalances(ctx, nil)
	if err != nil {
		return nil, err
	}
	report.BalanceMismatches = mismatches
	report.BalanceDuration = time.Since(start)

	start = time.Now()
	breaks, err := s.CheckSequences(ctx)
	if err != nil {
		return nil, err
	}
	report.SequenceBreaks = breaks
	report.SequenceDuration = time.Since(start)

	start = time.Now()
	negatives, err := s.CheckNegativeBalances(ctx)
	if err != nil {
		return nil, err
	}
	report.NegativeBalances = negatives
	report.NegativeDuration = time.Since(start)

	start = time.Now()
	orphans, err := s.CheckOrphans(ctx)
	if err != nil {
		return nil, err
	}
	report.Orphans = orphans
	report.OrphanDuration = time.Since(start)

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// FixBalance sets the cached balance to the ledger sum and re-derives the
// level, atomically in storage. The ledger is ground truth; the inverse
// repair does not exist.
func (s *ConsistencyService) FixBalance(ctx context.Context, userID int64) (*repository.RepairResult, error) {
	result, err := s.consistency.RepairBalance(ctx, userID, s.levels.Resolver())
	if err != nil {
		return nil, err
	}

	s.balances.Invalidate(userID)
	if result.OldPoints != result.NewPoints {
		s.logger.Info("balance repaired",
			slog.Int64("user_id", userID),
			slog.Int64("old_points", result.OldPoints),
			slog.Int64("new_points", result.NewPoints),
		)
	}
	return result, nil
}

func (s *ConsistencyService) checkUserBalance(ctx context.Context, userID int64) (*BalanceMismatch, error) {
	cached, computed, err := s.consistency.CachedAndComputed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cached == computed {
		return nil, nil
	}
	return &BalanceMismatch{UserID: userID, Cached: cached, Computed: computed}, nil
}

func (s *ConsistencyService) forEachUser(ctx context.Context, fn func(id int64) error) error {
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := s.users.ListIDs(ctx, afterID, s.batchSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		for _, id := range ids {
			if err := fn(id); err != nil {
				return err
			}
		}
		afterID = ids[len(ids)-1]
	}
}
