package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[int64]*model.User
	Err   error

	SetLevelCalls []int64
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{Users: make(map[int64]*model.User)}
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Create registers an account shell unless it already exists.
func (s *UserRepositoryStub) Create(ctx context.Context, id int64, companyID *int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[int64]*model.User)
	}
	if _, exists := s.Users[id]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	user := &model.User{ID: id, CompanyID: companyID, CreatedAt: time.Now()}
	s.Users[id] = user
	copied := *user
	return &copied, nil
}

// SetLevel persists the cached level reference.
func (s *UserRepositoryStub) SetLevel(ctx context.Context, userID int64, levelID *int64) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.LevelID = levelID
	s.SetLevelCalls = append(s.SetLevelCalls, userID)
	return nil
}

// ListIDs pages user ids in ascending order.
func (s *UserRepositoryStub) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var ids []int64
	for id := range s.Users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// TransactionRepositoryStub emulates the atomic ledger mutations in memory:
// append, cached balance, and level reference move together, and the
// idempotency/balance guards behave like the storage layer's.
type TransactionRepositoryStub struct {
	mu     sync.Mutex
	nextID int64
	clock  int64

	ByUser     map[int64][]model.PointTransaction
	UserPoints map[int64]int64
	UserLevels map[int64]*int64
	Disputed   map[int64]bool

	EarnFn   func(context.Context, repository.EarnParams, repository.LevelResolver) (*repository.MutationResult, error)
	SpendFn  func(context.Context, repository.SpendParams, repository.LevelResolver) (*repository.MutationResult, error)
	AdjustFn func(context.Context, repository.AdjustParams, repository.LevelResolver) (*repository.MutationResult, error)
	Err      error
}

// NewTransactionRepositoryStub constructs the stub with initialized maps.
func NewTransactionRepositoryStub() *TransactionRepositoryStub {
	return &TransactionRepositoryStub{
		ByUser:     make(map[int64][]model.PointTransaction),
		UserPoints: make(map[int64]int64),
		UserLevels: make(map[int64]*int64),
		Disputed:   make(map[int64]bool),
	}
}

func (s *TransactionRepositoryStub) append(userID int64, txType model.TransactionType, amount int64, mutate func(*model.PointTransaction), resolve repository.LevelResolver) *repository.MutationResult {
	s.nextID++
	s.clock++
	newBalance := s.UserPoints[userID] + amount
	tx := model.PointTransaction{
		ID:           s.nextID,
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: newBalance,
		CreatedAt:    time.Unix(s.clock, 0),
	}
	if mutate != nil {
		mutate(&tx)
	}
	s.ByUser[userID] = append(s.ByUser[userID], tx)
	s.UserPoints[userID] = newBalance

	oldLevel := s.UserLevels[userID]
	var newLevel *int64
	if resolve != nil {
		newLevel = resolve(newBalance)
	}
	changed := !equalLevelIDs(oldLevel, newLevel)
	if changed {
		s.UserLevels[userID] = newLevel
	}
	return &repository.MutationResult{
		Transaction:  &tx,
		NewBalance:   newBalance,
		OldLevelID:   oldLevel,
		NewLevelID:   newLevel,
		LevelChanged: changed,
	}
}

// Earn appends an EARN row or returns the existing one for the key.
func (s *TransactionRepositoryStub) Earn(ctx context.Context, p repository.EarnParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	if s.EarnFn != nil {
		return s.EarnFn(ctx, p, resolve)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.ByUser[p.UserID] {
		if tx.Type == model.TransactionEarn && tx.ReferenceID == p.ReferenceID && tx.ReferenceType == p.ReferenceType {
			existing := tx
			return &repository.MutationResult{
				Transaction:  &existing,
				Deduplicated: true,
				NewBalance:   s.UserPoints[p.UserID],
			}, nil
		}
	}

	return s.append(p.UserID, model.TransactionEarn, p.Amount, func(tx *model.PointTransaction) {
		tx.CompanyID = p.CompanyID
		tx.ReferenceID = p.ReferenceID
		tx.ReferenceType = p.ReferenceType
		tx.Description = p.Description
		tx.DisputeDeadline = p.DisputeDeadline
	}, resolve), nil
}

// Spend appends a negative SPEND row after a balance check.
func (s *TransactionRepositoryStub) Spend(ctx context.Context, p repository.SpendParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	if s.SpendFn != nil {
		return s.SpendFn(ctx, p, resolve)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Amount > s.UserPoints[p.UserID] {
		return nil, domainErrors.ErrInsufficientBalance
	}
	return s.append(p.UserID, model.TransactionSpend, -p.Amount, func(tx *model.PointTransaction) {
		tx.ReferenceID = p.ReferenceID
		tx.ReferenceType = p.ReferenceType
		tx.Description = p.Description
	}, resolve), nil
}

// Adjust appends a signed correction unless it would go negative.
func (s *TransactionRepositoryStub) Adjust(ctx context.Context, p repository.AdjustParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, p, resolve)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UserPoints[p.UserID]+p.Amount < 0 {
		return nil, domainErrors.ErrNegativeBalance
	}
	return s.append(p.UserID, model.TransactionAdjust, p.Amount, func(tx *model.PointTransaction) {
		tx.ReferenceID = p.ReferenceID
		tx.ReferenceType = p.ReferenceType
		tx.Description = p.Description
	}, resolve), nil
}

// GetByID scans stored transactions.
func (s *TransactionRepositoryStub) GetByID(ctx context.Context, id int64) (*model.PointTransaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txs := range s.ByUser {
		for _, tx := range txs {
			if tx.ID == id {
				copied := tx
				return &copied, nil
			}
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns entries newest first.
func (s *TransactionRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.ByUser[userID]
	out := make([]model.PointTransaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	return out, nil
}

// ListByUserAsc returns entries in creation order.
func (s *TransactionRepositoryStub) ListByUserAsc(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PointTransaction, len(s.ByUser[userID]))
	copy(out, s.ByUser[userID])
	return out, nil
}

// SumAmounts recomputes the balance from stored rows.
func (s *TransactionRepositoryStub) SumAmounts(ctx context.Context, userID int64) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, tx := range s.ByUser[userID] {
		sum += tx.Amount
	}
	return sum, nil
}

// ListUndisputedEarnExpiring filters EARN rows by deadline window and the
// Disputed marker.
func (s *TransactionRepositoryStub) ListUndisputedEarnExpiring(ctx context.Context, from, to time.Time) ([]model.PointTransaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PointTransaction
	for _, txs := range s.ByUser {
		for _, tx := range txs {
			if tx.Type != model.TransactionEarn || tx.DisputeDeadline == nil || s.Disputed[tx.ID] {
				continue
			}
			if tx.DisputeDeadline.Before(from) || tx.DisputeDeadline.After(to) {
				continue
			}
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DisputeRepositoryStub stores disputes in-memory.
type DisputeRepositoryStub struct {
	NextID        int64
	Disputes      map[int64]*model.PointDispute
	ByTransaction map[int64]int64
	Err           error
}

// NewDisputeRepositoryStub constructs the stub with initialized maps.
func NewDisputeRepositoryStub() *DisputeRepositoryStub {
	return &DisputeRepositoryStub{
		Disputes:      make(map[int64]*model.PointDispute),
		ByTransaction: make(map[int64]int64),
	}
}

// Create inserts a PENDING dispute unless the transaction is already disputed.
func (s *DisputeRepositoryStub) Create(ctx context.Context, d *model.PointDispute) (*model.PointDispute, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if _, exists := s.ByTransaction[d.TransactionID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	s.NextID++
	stored := *d
	stored.ID = s.NextID
	stored.CreatedAt = time.Now()
	s.Disputes[stored.ID] = &stored
	s.ByTransaction[d.TransactionID] = stored.ID
	copied := stored
	return &copied, nil
}

// GetByID fetches a dispute or returns not found.
func (s *DisputeRepositoryStub) GetByID(ctx context.Context, id int64) (*model.PointDispute, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if d, ok := s.Disputes[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByTransaction fetches the dispute filed against a transaction.
func (s *DisputeRepositoryStub) GetByTransaction(ctx context.Context, transactionID int64) (*model.PointDispute, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if id, ok := s.ByTransaction[transactionID]; ok {
		copied := *s.Disputes[id]
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Resolve transitions a PENDING dispute to a terminal state.
func (s *DisputeRepositoryStub) Resolve(ctx context.Context, id int64, status model.DisputeStatus, adminUserID int64, response string) (*model.PointDispute, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	d, ok := s.Disputes[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if d.Status != model.DisputePending {
		return nil, domainErrors.ErrDisputeAlreadyResolved
	}
	now := time.Now()
	d.Status = status
	d.AdminUserID = &adminUserID
	d.Response = response
	d.ResolvedAt = &now
	copied := *d
	return &copied, nil
}

// PurchaseRepositoryStub stores purchases in-memory.
type PurchaseRepositoryStub struct {
	NextID    int64
	Purchases map[int64]*model.PointPurchase
	Orphaned  []int64
	Err       error
}

// NewPurchaseRepositoryStub constructs the stub with initialized maps.
func NewPurchaseRepositoryStub() *PurchaseRepositoryStub {
	return &PurchaseRepositoryStub{Purchases: make(map[int64]*model.PointPurchase)}
}

// Create inserts a purchase row.
func (s *PurchaseRepositoryStub) Create(ctx context.Context, p *model.PointPurchase) (*model.PointPurchase, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.NextID++
	stored := *p
	stored.ID = s.NextID
	stored.CreatedAt = time.Now()
	s.Purchases[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetByID fetches a purchase or returns not found.
func (s *PurchaseRepositoryStub) GetByID(ctx context.Context, id int64) (*model.PointPurchase, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if p, ok := s.Purchases[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// SetTransaction links the SPEND ledger entry.
func (s *PurchaseRepositoryStub) SetTransaction(ctx context.Context, id int64, transactionID int64) error {
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.Purchases[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.TransactionID = &transactionID
	return nil
}

// Transition applies a conditional status change.
func (s *PurchaseRepositoryStub) Transition(ctx context.Context, id int64, from, to model.PurchaseStatus) error {
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.Purchases[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if p.Status != from {
		return domainErrors.ErrPurchaseFinalized
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return nil
}

// ListOrphaned returns the configured orphan ids.
func (s *PurchaseRepositoryStub) ListOrphaned(ctx context.Context) ([]int64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Orphaned, nil
}

// LevelRepositoryStub serves a fixed ladder.
type LevelRepositoryStub struct {
	Levels []model.UserLevel
	Err    error
}

// List returns the configured ladder.
func (s *LevelRepositoryStub) List(ctx context.Context) ([]model.UserLevel, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.UserLevel, len(s.Levels))
	copy(out, s.Levels)
	return out, nil
}

// ConsistencyRepositoryStub serves audit data from configurable maps.
type ConsistencyRepositoryStub struct {
	Cached          map[int64]int64
	Computed        map[int64]int64
	NegativeEntries []model.PointTransaction
	OrphanDisputes  []int64
	Err             error

	RepairCalls []int64
}

// NewConsistencyRepositoryStub constructs the stub with initialized maps.
func NewConsistencyRepositoryStub() *ConsistencyRepositoryStub {
	return &ConsistencyRepositoryStub{
		Cached:   make(map[int64]int64),
		Computed: make(map[int64]int64),
	}
}

// CachedAndComputed returns the configured balances for a user.
func (s *ConsistencyRepositoryStub) CachedAndComputed(ctx context.Context, userID int64) (int64, int64, error) {
	if s.Err != nil {
		return 0, 0, s.Err
	}
	return s.Cached[userID], s.Computed[userID], nil
}

// NegativeBalanceEntries returns the configured rows.
func (s *ConsistencyRepositoryStub) NegativeBalanceEntries(ctx context.Context) ([]model.PointTransaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.NegativeEntries, nil
}

// OrphanedDisputeIDs returns the configured ids.
func (s *ConsistencyRepositoryStub) OrphanedDisputeIDs(ctx context.Context) ([]int64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.OrphanDisputes, nil
}

// RepairBalance copies the computed balance over the cached one.
func (s *ConsistencyRepositoryStub) RepairBalance(ctx context.Context, userID int64, resolve repository.LevelResolver) (*repository.RepairResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.RepairCalls = append(s.RepairCalls, userID)
	old := s.Cached[userID]
	computed := s.Computed[userID]
	s.Cached[userID] = computed
	result := &repository.RepairResult{UserID: userID, OldPoints: old, NewPoints: computed}
	if resolve != nil {
		result.NewLevelID = resolve(computed)
		result.LevelChanged = result.NewLevelID != nil
	}
	return result, nil
}

func equalLevelIDs(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
