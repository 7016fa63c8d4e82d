package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/perkhub/pointsledger/internal/usecase"
)

// ConsistencyFacade exposes the subset of application functionality required
// by the reconciler.
type ConsistencyFacade interface {
	RunConsistencyCheck(ctx context.Context) (*usecase.Report, error)
}

// Reconciler runs the full consistency audit on a schedule, out-of-band from
// the request path. It only reports drift; repairs stay an explicit admin
// action.
type Reconciler struct {
	facade   ConsistencyFacade
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the scheduled consistency job.
func NewReconciler(facade ConsistencyFacade, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reconciler{
		facade:   facade,
		interval: interval,
		logger:   logger,
	}
}

// Start launches background reconciliation. One check runs immediately so
// drift present at boot is reported without waiting a full interval.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(runCtx)
}

// Stop cancels the running check and waits for the loop to exit.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	report, err := r.facade.RunConsistencyCheck(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("consistency check failed", slog.String("error", err.Error()))
		return
	}

	if report.Clean() {
		r.logger.Info("consistency check clean", slog.Duration("duration", report.Duration))
		return
	}

	r.logger.Warn("consistency check found drift",
		slog.Duration("duration", report.Duration),
		slog.Int("balance_mismatches", len(report.BalanceMismatches)),
		slog.Int("sequence_breaks", len(report.SequenceBreaks)),
		slog.Int("negative_balances", len(report.NegativeBalances)),
		slog.Int("orphaned_disputes", len(report.Orphans.DisputeIDs)),
		slog.Int("orphaned_purchases", len(report.Orphans.PurchaseIDs)),
	)
}
