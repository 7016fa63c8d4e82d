package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/points"
	testhelpers "github.com/perkhub/pointsledger/internal/test"
)

type engineFixture struct {
	engine       *LedgerEngine
	transactions *testhelpers.TransactionRepositoryStub
	users        *testhelpers.UserRepositoryStub
	balances     *testhelpers.BalanceCacheRecorder
	notifier     *testhelpers.NotifierRecorder
	levels       *LevelService
}

func testLadder() []model.UserLevel {
	silverMax := int64(2000)
	bronzeMax := int64(500)
	return []model.UserLevel{
		{ID: 1, Name: "Bronze", MinPoints: 0, MaxPoints: &bronzeMax},
		{ID: 2, Name: "Silver", MinPoints: 500, MaxPoints: &silverMax},
		{ID: 3, Name: "Gold", MinPoints: 2000},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	users := testhelpers.NewUserRepositoryStub()
	if _, err := users.Create(context.Background(), 1, nil); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	levels := NewLevelService(&testhelpers.LevelRepositoryStub{Levels: testLadder()}, users, discardLogger())
	if err := levels.Reload(context.Background()); err != nil {
		t.Fatalf("load ladder: %v", err)
	}

	transactions := testhelpers.NewTransactionRepositoryStub()
	balances := testhelpers.NewBalanceCacheRecorder()
	notifier := &testhelpers.NotifierRecorder{}

	engine := NewLedgerEngine(transactions, users, levels, balances, notifier, discardLogger(), LedgerOptions{DisputeWindowDays: 90})
	return &engineFixture{
		engine:       engine,
		transactions: transactions,
		users:        users,
		balances:     balances,
		notifier:     notifier,
		levels:       levels,
	}
}

func TestEarnRejectsNonPositiveAmount(t *testing.T) {
	f := newEngineFixture(t)
	for _, amount := range []points.Storage{0, -10} {
		_, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: amount, ReferenceID: "r", ReferenceType: "activity"})
		if !errors.Is(err, domainErrors.ErrInvalidAmount) {
			t.Fatalf("expected invalid amount for %d, got %v", amount, err)
		}
	}
	if len(f.transactions.ByUser[1]) != 0 {
		t.Fatal("no transaction must be recorded on validation failure")
	}
}

func TestEarnRecordsTransactionAndBalance(t *testing.T) {
	f := newEngineFixture(t)

	companyID := int64(42)
	res, err := f.engine.Earn(context.Background(), EarnRequest{
		UserID:        1,
		CompanyID:     &companyID,
		Amount:        points.DisplayFromFloat(10.0),
		ReferenceID:   "act1",
		ReferenceType: "activity",
		Description:   "weekly activity",
	})
	if err != nil {
		t.Fatalf("earn returned error: %v", err)
	}

	if res.Transaction.Amount != 100 {
		t.Fatalf("expected 100 storage units, got %d", res.Transaction.Amount)
	}
	if res.Transaction.CompanyID == nil || *res.Transaction.CompanyID != companyID {
		t.Fatalf("expected company scope on the row, got %+v", res.Transaction)
	}
	if res.Transaction.BalanceAfter != 100 {
		t.Fatalf("expected balance_after 100, got %d", res.Transaction.BalanceAfter)
	}
	if res.Transaction.DisputeDeadline == nil {
		t.Fatal("expected default dispute deadline")
	}
	if got := len(f.transactions.ByUser[1]); got != 1 {
		t.Fatalf("expected 1 transaction, got %d", got)
	}
	if len(f.notifier.Earned) != 1 {
		t.Fatalf("expected earn notification, got %d", len(f.notifier.Earned))
	}
	if len(f.balances.Invalidated) == 0 {
		t.Fatal("expected balance cache invalidation")
	}
}

func TestEarnDeduplicatesByReference(t *testing.T) {
	f := newEngineFixture(t)
	req := EarnRequest{UserID: 1, Amount: points.DisplayFromFloat(10.0), ReferenceID: "act1", ReferenceType: "activity"}

	first, err := f.engine.Earn(context.Background(), req)
	if err != nil {
		t.Fatalf("first earn: %v", err)
	}
	second, err := f.engine.Earn(context.Background(), req)
	if err != nil {
		t.Fatalf("second earn: %v", err)
	}

	if !second.Deduplicated {
		t.Fatal("expected second earn to deduplicate")
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("expected same transaction, got %d and %d", first.Transaction.ID, second.Transaction.ID)
	}
	if got := len(f.transactions.ByUser[1]); got != 1 {
		t.Fatalf("expected 1 persisted transaction, got %d", got)
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 100 {
		t.Fatalf("expected balance 100, got %d", got)
	}
	if len(f.notifier.Earned) != 1 {
		t.Fatalf("duplicate earn must not notify again, got %d events", len(f.notifier.Earned))
	}
}

func TestEarnWindowOverrides(t *testing.T) {
	f := newEngineFixture(t)

	res, err := f.engine.Earn(context.Background(), EarnRequest{
		UserID: 1, Amount: points.Storage(50), ReferenceID: "r1", ReferenceType: "t",
		DisputeWindowDays: 7,
	})
	if err != nil {
		t.Fatalf("earn: %v", err)
	}
	want := time.Now().AddDate(0, 0, 7)
	if res.Transaction.DisputeDeadline == nil || res.Transaction.DisputeDeadline.Sub(want) > time.Minute {
		t.Fatalf("expected deadline near %v, got %v", want, res.Transaction.DisputeDeadline)
	}

	res, err = f.engine.Earn(context.Background(), EarnRequest{
		UserID: 1, Amount: points.Storage(50), ReferenceID: "r2", ReferenceType: "t",
		DisputeWindowDays: NoDisputeWindow,
	})
	if err != nil {
		t.Fatalf("earn: %v", err)
	}
	if res.Transaction.DisputeDeadline != nil {
		t.Fatal("expected no deadline for NoDisputeWindow")
	}
}

func TestSpendInsufficientBalance(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.DisplayFromFloat(10.0), ReferenceID: "a", ReferenceType: "t"}); err != nil {
		t.Fatalf("seed earn: %v", err)
	}

	_, err := f.engine.Spend(context.Background(), SpendRequest{UserID: 1, Amount: points.DisplayFromFloat(15.0), ReferenceID: "p1", ReferenceType: "purchase"})
	if !errors.Is(err, domainErrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 100 {
		t.Fatalf("balance must be unchanged, got %d", got)
	}
	if len(f.notifier.Spent) != 0 {
		t.Fatal("failed spend must not notify")
	}
}

func TestSpendRecordsNegativeAmount(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.Storage(100), ReferenceID: "a", ReferenceType: "t"}); err != nil {
		t.Fatalf("seed earn: %v", err)
	}

	res, err := f.engine.Spend(context.Background(), SpendRequest{UserID: 1, Amount: points.Storage(40), ReferenceID: "p1", ReferenceType: "purchase"})
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if res.Transaction.Amount != -40 {
		t.Fatalf("expected stored amount -40, got %d", res.Transaction.Amount)
	}
	if res.Transaction.BalanceAfter != 60 {
		t.Fatalf("expected balance_after 60, got %d", res.Transaction.BalanceAfter)
	}
	if len(f.notifier.Spent) != 1 || f.notifier.Spent[0].Amount != 40 {
		t.Fatalf("expected spent notification of 40, got %+v", f.notifier.Spent)
	}
}

func TestSpendHasNoIdempotencyGuard(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.Storage(100), ReferenceID: "a", ReferenceType: "t"}); err != nil {
		t.Fatalf("seed earn: %v", err)
	}

	req := SpendRequest{UserID: 1, Amount: points.Storage(30), ReferenceID: "same", ReferenceType: "purchase"}
	for i := 0; i < 2; i++ {
		if _, err := f.engine.Spend(context.Background(), req); err != nil {
			t.Fatalf("spend %d: %v", i, err)
		}
	}
	if got, _ := f.transactions.SumAmounts(context.Background(), 1); got != 40 {
		t.Fatalf("each spend must debit independently, balance %d", got)
	}
}

func TestAdjustGuards(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.Storage(50), ReferenceID: "a", ReferenceType: "t"}); err != nil {
		t.Fatalf("seed earn: %v", err)
	}

	_, err := f.engine.Adjust(context.Background(), AdjustRequest{UserID: 1, Amount: points.Storage(0), ReferenceID: "adj", ReferenceType: "manual"})
	if !errors.Is(err, domainErrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero adjust, got %v", err)
	}

	_, err = f.engine.Adjust(context.Background(), AdjustRequest{UserID: 1, Amount: points.Storage(-100), ReferenceID: "adj", ReferenceType: "manual"})
	if !errors.Is(err, domainErrors.ErrNegativeBalance) {
		t.Fatalf("expected negative balance rejection, got %v", err)
	}

	res, err := f.engine.Adjust(context.Background(), AdjustRequest{UserID: 1, Amount: points.Storage(-30), ReferenceID: "adj", ReferenceType: "manual"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.NewBalance != 20 {
		t.Fatalf("expected balance 20, got %d", res.NewBalance)
	}
}

func TestBalanceCacheSequence(t *testing.T) {
	f := newEngineFixture(t)
	f.users.Users[1].Points = 250

	balance, err := f.engine.Balance(context.Background(), 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 250 {
		t.Fatalf("expected 250 from user row, got %d", balance)
	}
	if cached, ok := f.balances.Values[1]; !ok || cached != 250 {
		t.Fatal("expected balance to populate cache on miss")
	}

	// A stale cache entry is served until invalidated.
	f.balances.Values[1] = 999
	balance, err = f.engine.Balance(context.Background(), 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 999 {
		t.Fatalf("expected cached value, got %d", balance)
	}

	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.Storage(10), ReferenceID: "x", ReferenceType: "t"}); err != nil {
		t.Fatalf("earn: %v", err)
	}
	if _, ok := f.balances.Values[1]; ok {
		t.Fatal("mutation must invalidate the cache entry")
	}
}

func TestBalanceUnknownUser(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.Balance(context.Background(), 42); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecomputeBalanceSumsLedger(t *testing.T) {
	f := newEngineFixture(t)
	for i, amount := range []points.Storage{100, 50} {
		ref := []string{"a", "b"}[i]
		if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: amount, ReferenceID: ref, ReferenceType: "t"}); err != nil {
			t.Fatalf("earn: %v", err)
		}
	}
	if _, err := f.engine.Spend(context.Background(), SpendRequest{UserID: 1, Amount: points.Storage(30), ReferenceID: "s", ReferenceType: "p"}); err != nil {
		t.Fatalf("spend: %v", err)
	}

	balance, err := f.engine.RecomputeBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if balance != 120 {
		t.Fatalf("expected 120, got %d", balance)
	}
}

func TestMutationTriggersLevelChangeNotification(t *testing.T) {
	f := newEngineFixture(t)

	if _, err := f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: points.Storage(600), ReferenceID: "big", ReferenceType: "t"}); err != nil {
		t.Fatalf("earn: %v", err)
	}

	// First earn moves the user from no level into Silver.
	if len(f.notifier.LevelChanges) != 1 {
		t.Fatalf("expected 1 level change, got %d", len(f.notifier.LevelChanges))
	}
	change := f.notifier.LevelChanges[0]
	if change.NewLevelID == nil || *change.NewLevelID != 2 {
		t.Fatalf("expected Silver (id 2), got %v", change.NewLevelID)
	}
}

func TestRunningBalanceInvariant(t *testing.T) {
	f := newEngineFixture(t)
	ops := []struct {
		earn   bool
		amount points.Storage
		ref    string
	}{
		{true, 100, "e1"},
		{true, 250, "e2"},
		{false, 120, "s1"},
		{true, 40, "e3"},
	}
	for _, op := range ops {
		var err error
		if op.earn {
			_, err = f.engine.Earn(context.Background(), EarnRequest{UserID: 1, Amount: op.amount, ReferenceID: op.ref, ReferenceType: "t"})
		} else {
			_, err = f.engine.Spend(context.Background(), SpendRequest{UserID: 1, Amount: op.amount, ReferenceID: op.ref, ReferenceType: "p"})
		}
		if err != nil {
			t.Fatalf("op %s: %v", op.ref, err)
		}
	}

	txs, err := f.engine.transactions.ListByUserAsc(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	running := int64(0)
	for _, tx := range txs {
		running += tx.Amount
		if tx.BalanceAfter != running {
			t.Fatalf("balance_after %d breaks running sum %d at tx %d", tx.BalanceAfter, running, tx.ID)
		}
	}
}
