package repository

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// UserRepository reads and repairs the denormalized per-user account state.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// Create registers an account shell for a platform user id.
	Create(ctx context.Context, id int64, companyID *int64) (*model.User, error)

	// SetLevel persists the cached level reference outside a ledger mutation
	// (repair path only; mutations update the level in their own transaction).
	SetLevel(ctx context.Context, userID int64, levelID *int64) error

	// ListIDs pages user ids in ascending order for batch jobs.
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}
