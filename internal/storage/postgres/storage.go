package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage uses, extracted so tests
// can substitute a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type transactionRepository struct {
	storage *Storage
}

type disputeRepository struct {
	storage *Storage
}

type purchaseRepository struct {
	storage *Storage
}

type levelRepository struct {
	storage *Storage
}

type consistencyRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Transactions() repository.TransactionRepository {
	return &transactionRepository{storage: s}
}

func (s *Storage) Disputes() repository.DisputeRepository {
	return &disputeRepository{storage: s}
}

func (s *Storage) Purchases() repository.PurchaseRepository {
	return &purchaseRepository{storage: s}
}

func (s *Storage) Levels() repository.LevelRepository {
	return &levelRepository{storage: s}
}

func (s *Storage) Consistency() repository.ConsistencyRepository {
	return &consistencyRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_levels (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            min_points BIGINT NOT NULL,
            max_points BIGINT,
            benefits TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id BIGINT PRIMARY KEY,
            company_id BIGINT,
            points BIGINT NOT NULL DEFAULT 0,
            level_id BIGINT REFERENCES user_levels(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS point_transactions (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            company_id BIGINT,
            type TEXT NOT NULL,
            amount BIGINT NOT NULL,
            balance_after BIGINT NOT NULL,
            reference_id TEXT NOT NULL DEFAULT '',
            reference_type TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            dispute_deadline TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS point_disputes (
            id BIGSERIAL PRIMARY KEY,
            transaction_id BIGINT NOT NULL UNIQUE REFERENCES point_transactions(id),
            user_id BIGINT NOT NULL REFERENCES users(id),
            reason TEXT NOT NULL DEFAULT '',
            requested_amount BIGINT NOT NULL,
            status TEXT NOT NULL,
            response TEXT NOT NULL DEFAULT '',
            admin_user_id BIGINT,
            resolved_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS point_purchases (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            item_id BIGINT NOT NULL,
            points_cost BIGINT NOT NULL,
            transaction_id BIGINT REFERENCES point_transactions(id),
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_earn_reference
            ON point_transactions(user_id, reference_id, reference_type) WHERE type = 'EARN'`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON point_transactions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_deadline ON point_transactions(dispute_deadline) WHERE dispute_deadline IS NOT NULL`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const transactionColumns = `id, user_id, company_id, type, amount, balance_after, reference_id, reference_type, description, dispute_deadline, created_at`

func scanTransaction(row pgx.Row) (*model.PointTransaction, error) {
	var t model.PointTransaction
	err := row.Scan(&t.ID, &t.UserID, &t.CompanyID, &t.Type, &t.Amount, &t.BalanceAfter,
		&t.ReferenceID, &t.ReferenceType, &t.Description, &t.DisputeDeadline, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- UserRepository implementation ---

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, company_id, points, level_id, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.CompanyID, &u.Points, &u.LevelID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, id int64, companyID *int64) (*model.User, error) {
	const query = `INSERT INTO users (id, company_id) VALUES ($1, $2) RETURNING created_at`
	u := model.User{ID: id, CompanyID: companyID}
	err := r.storage.pool.QueryRow(ctx, query, id, companyID).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) SetLevel(ctx context.Context, userID int64, levelID *int64) error {
	const query = `UPDATE users SET level_id=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, userID, levelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	const query = `SELECT id FROM users WHERE id > $1 ORDER BY id LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- TransactionRepository implementation ---

// Ledger mutations share one shape: lock the user row, compute the new
// balance, append the transaction, and write balance plus re-derived level
// back to the user row, all inside a single database transaction.

const ensureUserQuery = `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
const lockUserQuery = `SELECT points, level_id FROM users WHERE id=$1 FOR UPDATE`
const updateUserBalanceQuery = `UPDATE users SET points=$2, level_id=$3 WHERE id=$1`

func lockUser(ctx context.Context, tx pgx.Tx, userID int64) (int64, *int64, error) {
	var points int64
	var levelID *int64
	if err := tx.QueryRow(ctx, lockUserQuery, userID).Scan(&points, &levelID); err != nil {
		return 0, nil, err
	}
	return points, levelID, nil
}

func applyBalance(ctx context.Context, tx pgx.Tx, userID, newBalance int64, oldLevelID *int64, resolve repository.LevelResolver) (*int64, bool, error) {
	newLevelID := oldLevelID
	if resolve != nil {
		newLevelID = resolve(newBalance)
	}
	if _, err := tx.Exec(ctx, updateUserBalanceQuery, userID, newBalance, newLevelID); err != nil {
		return nil, false, err
	}
	return newLevelID, !equalLevelIDs(oldLevelID, newLevelID), nil
}

func equalLevelIDs(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *transactionRepository) Earn(ctx context.Context, p repository.EarnParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	const insertQuery = `INSERT INTO point_transactions
        (user_id, company_id, type, amount, balance_after, reference_id, reference_type, description, dispute_deadline)
        VALUES ($1, $2, 'EARN', $3, $4, $5, $6, $7, $8)
        ON CONFLICT (user_id, reference_id, reference_type) WHERE type = 'EARN' DO NOTHING
        RETURNING id, created_at`
	const selectExisting = `SELECT ` + transactionColumns + ` FROM point_transactions
        WHERE user_id=$1 AND reference_id=$2 AND reference_type=$3 AND type='EARN'`

	var result *repository.MutationResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureUserQuery, p.UserID); err != nil {
			return err
		}
		points, levelID, err := lockUser(ctx, tx, p.UserID)
		if err != nil {
			return err
		}

		newBalance := points + p.Amount
		entry := model.PointTransaction{
			UserID:          p.UserID,
			CompanyID:       p.CompanyID,
			Type:            model.TransactionEarn,
			Amount:          p.Amount,
			BalanceAfter:    newBalance,
			ReferenceID:     p.ReferenceID,
			ReferenceType:   p.ReferenceType,
			Description:     p.Description,
			DisputeDeadline: p.DisputeDeadline,
		}
		err = tx.QueryRow(ctx, insertQuery,
			p.UserID, p.CompanyID, p.Amount, newBalance, p.ReferenceID, p.ReferenceType, p.Description, p.DisputeDeadline,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			// Conflict with a prior delivery of the same reference: return
			// the recorded row untouched.
			existing, err := scanTransaction(tx.QueryRow(ctx, selectExisting, p.UserID, p.ReferenceID, p.ReferenceType))
			if err != nil {
				return err
			}
			result = &repository.MutationResult{Transaction: existing, Deduplicated: true, NewBalance: points}
			return nil
		}

		newLevelID, changed, err := applyBalance(ctx, tx, p.UserID, newBalance, levelID, resolve)
		if err != nil {
			return err
		}
		result = &repository.MutationResult{
			Transaction:  &entry,
			NewBalance:   newBalance,
			OldLevelID:   levelID,
			NewLevelID:   newLevelID,
			LevelChanged: changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transactionRepository) Spend(ctx context.Context, p repository.SpendParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	const insertQuery = `INSERT INTO point_transactions
        (user_id, type, amount, balance_after, reference_id, reference_type, description)
        VALUES ($1, 'SPEND', $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	var result *repository.MutationResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		points, levelID, err := lockUser(ctx, tx, p.UserID)
		if err != nil {
			// A user with no row has no ledger to debit.
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if points < p.Amount {
			return domainErrors.ErrInsufficientBalance
		}

		newBalance := points - p.Amount
		entry := model.PointTransaction{
			UserID:        p.UserID,
			Type:          model.TransactionSpend,
			Amount:        -p.Amount,
			BalanceAfter:  newBalance,
			ReferenceID:   p.ReferenceID,
			ReferenceType: p.ReferenceType,
			Description:   p.Description,
		}
		err = tx.QueryRow(ctx, insertQuery,
			p.UserID, -p.Amount, newBalance, p.ReferenceID, p.ReferenceType, p.Description,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return err
		}

		newLevelID, changed, err := applyBalance(ctx, tx, p.UserID, newBalance, levelID, resolve)
		if err != nil {
			return err
		}
		result = &repository.MutationResult{
			Transaction:  &entry,
			NewBalance:   newBalance,
			OldLevelID:   levelID,
			NewLevelID:   newLevelID,
			LevelChanged: changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transactionRepository) Adjust(ctx context.Context, p repository.AdjustParams, resolve repository.LevelResolver) (*repository.MutationResult, error) {
	const insertQuery = `INSERT INTO point_transactions
        (user_id, type, amount, balance_after, reference_id, reference_type, description)
        VALUES ($1, 'ADJUST', $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	var result *repository.MutationResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureUserQuery, p.UserID); err != nil {
			return err
		}
		points, levelID, err := lockUser(ctx, tx, p.UserID)
		if err != nil {
			return err
		}

		newBalance := points + p.Amount
		if newBalance < 0 {
			return domainErrors.ErrNegativeBalance
		}

		entry := model.PointTransaction{
			UserID:        p.UserID,
			Type:          model.TransactionAdjust,
			Amount:        p.Amount,
			BalanceAfter:  newBalance,
			ReferenceID:   p.ReferenceID,
			ReferenceType: p.ReferenceType,
			Description:   p.Description,
		}
		err = tx.QueryRow(ctx, insertQuery,
			p.UserID, p.Amount, newBalance, p.ReferenceID, p.ReferenceType, p.Description,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return err
		}

		newLevelID, changed, err := applyBalance(ctx, tx, p.UserID, newBalance, levelID, resolve)
		if err != nil {
			return err
		}
		result = &repository.MutationResult{
			Transaction:  &entry,
			NewBalance:   newBalance,
			OldLevelID:   levelID,
			NewLevelID:   newLevelID,
			LevelChanged: changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*model.PointTransaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM point_transactions WHERE id=$1`
	t, err := scanTransaction(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) listByUser(ctx context.Context, query string, userID int64) ([]model.PointTransaction, error) {
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM point_transactions
        WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	return r.listByUser(ctx, query, userID)
}

func (r *transactionRepository) ListByUserAsc(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM point_transactions
        WHERE user_id=$1 ORDER BY created_at ASC, id ASC`
	return r.listByUser(ctx, query, userID)
}

func (r *transactionRepository) SumAmounts(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM point_transactions WHERE user_id=$1`
	var sum int64
	if err := r.storage.pool.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *transactionRepository) ListUndisputedEarnExpiring(ctx context.Context, from, to time.Time) ([]model.PointTransaction, error) {
	const query = `SELECT t.id, t.user_id, t.company_id, t.type, t.amount, t.balance_after,
            t.reference_id, t.reference_type, t.description, t.dispute_deadline, t.created_at
        FROM point_transactions t
        LEFT JOIN point_disputes d ON d.transaction_id = t.id
        WHERE t.type='EARN' AND t.dispute_deadline BETWEEN $1 AND $2 AND d.id IS NULL
        ORDER BY t.dispute_deadline`
	rows, err := r.storage.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- DisputeRepository implementation ---

const disputeColumns = `id, transaction_id, user_id, reason, requested_amount, status, response, admin_user_id, resolved_at, created_at`

func scanDispute(row pgx.Row) (*model.PointDispute, error) {
	var d model.PointDispute
	err := row.Scan(&d.ID, &d.TransactionID, &d.UserID, &d.Reason, &d.RequestedAmount,
		&d.Status, &d.Response, &d.AdminUserID, &d.ResolvedAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *disputeRepository) Create(ctx context.Context, d *model.PointDispute) (*model.PointDispute, error) {
	const query = `INSERT INTO point_disputes (transaction_id, user_id, reason, requested_amount, status)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	stored := *d
	err := r.storage.pool.QueryRow(ctx, query,
		d.TransactionID, d.UserID, d.Reason, d.RequestedAmount, d.Status,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &stored, nil
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*model.PointDispute, error) {
	const query = `SELECT ` + disputeColumns + ` FROM point_disputes WHERE id=$1`
	d, err := scanDispute(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) GetByTransaction(ctx context.Context, transactionID int64) (*model.PointDispute, error) {
	const query = `SELECT ` + disputeColumns + ` FROM point_disputes WHERE transaction_id=$1`
	d, err := scanDispute(r.storage.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) Resolve(ctx context.Context, id int64, status model.DisputeStatus, adminUserID int64, response string) (*model.PointDispute, error) {
	// The status predicate makes re-resolution a no-op at the database
	// level; losing a race surfaces as ErrDisputeAlreadyResolved.
	const query = `UPDATE point_disputes
        SET status=$2, admin_user_id=$3, response=$4, resolved_at=NOW()
        WHERE id=$1 AND status='PENDING'
        RETURNING ` + disputeColumns
	d, err := scanDispute(r.storage.pool.QueryRow(ctx, query, id, status, adminUserID, response))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domainErrors.ErrDisputeAlreadyResolved
	}
	return d, nil
}

// --- PurchaseRepository implementation ---

const purchaseColumns = `id, user_id, item_id, points_cost, transaction_id, status, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.PointPurchase, error) {
	var p model.PointPurchase
	err := row.Scan(&p.ID, &p.UserID, &p.ItemID, &p.PointsCost, &p.TransactionID,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) Create(ctx context.Context, p *model.PointPurchase) (*model.PointPurchase, error) {
	const query = `INSERT INTO point_purchases (user_id, item_id, points_cost, status)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	stored := *p
	err := r.storage.pool.QueryRow(ctx, query, p.UserID, p.ItemID, p.PointsCost, p.Status).
		Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id int64) (*model.PointPurchase, error) {
	const query = `SELECT ` + purchaseColumns + ` FROM point_purchases WHERE id=$1`
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepository) SetTransaction(ctx context.Context, id int64, transactionID int64) error {
	const query = `UPDATE point_purchases SET transaction_id=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, transactionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *purchaseRepository) Transition(ctx context.Context, id int64, from, to model.PurchaseStatus) error {
	const query = `UPDATE point_purchases SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	tag, err := r.storage.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domainErrors.ErrPurchaseFinalized
	}
	return nil
}

func (r *purchaseRepository) ListOrphaned(ctx context.Context) ([]int64, error) {
	const query = `SELECT p.id FROM point_purchases p
        LEFT JOIN point_transactions t ON t.id = p.transaction_id
        WHERE p.transaction_id IS NOT NULL AND t.id IS NULL
        ORDER BY p.id`
	return r.storage.listIDs(ctx, query)
}

// --- LevelRepository implementation ---

func (r *levelRepository) List(ctx context.Context) ([]model.UserLevel, error) {
	const query = `SELECT id, name, min_points, max_points, benefits FROM user_levels ORDER BY min_points`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.UserLevel
	for rows.Next() {
		var l model.UserLevel
		if err := rows.Scan(&l.ID, &l.Name, &l.MinPoints, &l.MaxPoints, &l.Benefits); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- ConsistencyRepository implementation ---

func (r *consistencyRepository) CachedAndComputed(ctx context.Context, userID int64) (int64, int64, error) {
	const query = `SELECT u.points, COALESCE(SUM(t.amount), 0)
        FROM users u
        LEFT JOIN point_transactions t ON t.user_id = u.id
        WHERE u.id=$1
        GROUP BY u.points`
	var cached, computed int64
	err := r.storage.pool.QueryRow(ctx, query, userID).Scan(&cached, &computed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, domainErrors.ErrNotFound
		}
		return 0, 0, err
	}
	return cached, computed, nil
}

func (r *consistencyRepository) NegativeBalanceEntries(ctx context.Context) ([]model.PointTransaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM point_transactions
        WHERE balance_after < 0 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *consistencyRepository) OrphanedDisputeIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT d.id FROM point_disputes d
        LEFT JOIN point_transactions t ON t.id = d.transaction_id
        WHERE t.id IS NULL
        ORDER BY d.id`
	return r.storage.listIDs(ctx, query)
}

func (r *consistencyRepository) RepairBalance(ctx context.Context, userID int64, resolve repository.LevelResolver) (*repository.RepairResult, error) {
	const sumQuery = `SELECT COALESCE(SUM(amount), 0) FROM point_transactions WHERE user_id=$1`

	var result *repository.RepairResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		points, levelID, err := lockUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}

		var computed int64
		if err := tx.QueryRow(ctx, sumQuery, userID).Scan(&computed); err != nil {
			return err
		}

		newLevelID, changed, err := applyBalance(ctx, tx, userID, computed, levelID, resolve)
		if err != nil {
			return err
		}
		result = &repository.RepairResult{
			UserID:       userID,
			OldPoints:    points,
			NewPoints:    computed,
			OldLevelID:   levelID,
			NewLevelID:   newLevelID,
			LevelChanged: changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) listIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
