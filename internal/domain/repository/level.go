package repository

import (
	"context"

	"github.com/perkhub/pointsledger/internal/domain/model"
)

// LevelRepository reads the configured level ladder.
type LevelRepository interface {
	// List returns all levels ordered by min_points ascending.
	List(ctx context.Context) ([]model.UserLevel, error)
}
