package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/perkhub/pointsledger/internal/domain/model"
	"github.com/perkhub/pointsledger/internal/domain/repository"
)

// LevelChange reports the outcome of a tier recheck.
type LevelChange struct {
	Changed    bool
	OldLevelID *int64
	NewLevelID *int64
	NewLevel   *model.UserLevel
}

// LadderIssue flags a configuration problem in the level ladder. Issues are
// advisory: a broken ladder degrades tier assignment, it never blocks the
// ledger.
type LadderIssue struct {
	LevelName string
	Kind      string
	Detail    string
}

// LevelService derives tiers from balances. The ladder is loaded once at
// startup and kept in memory; Reload refreshes it.
type LevelService struct {
	levels repository.LevelRepository
	users  repository.UserRepository
	logger *slog.Logger

	mu     sync.RWMutex
	ladder []model.UserLevel
}

// NewLevelService constructs LevelService.
func NewLevelService(levels repository.LevelRepository, users repository.UserRepository, logger *slog.Logger) *LevelService {
	return &LevelService{levels: levels, users: users, logger: logger}
}

// Reload fetches the ladder from storage and logs validation issues.
func (s *LevelService) Reload(ctx context.Context) error {
	ladder, err := s.levels.List(ctx)
	if err != nil {
		return fmt.Errorf("load level ladder: %w", err)
	}

	sort.Slice(ladder, func(i, j int) bool { return ladder[i].MinPoints < ladder[j].MinPoints })

	for _, issue := range ValidateLadder(ladder) {
		s.logger.Warn("level ladder issue",
			slog.String("level", issue.LevelName),
			slog.String("kind", issue.Kind),
			slog.String("detail", issue.Detail),
		)
	}

	s.mu.Lock()
	s.ladder = ladder
	s.mu.Unlock()
	return nil
}

// LevelFor returns the level whose [min, max) range contains the balance,
// preferring the highest min_points when a misconfigured ladder overlaps.
// Nil when no level is configured or none matches.
func (s *LevelService) LevelFor(balance int64) *model.UserLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.ladder) - 1; i >= 0; i-- {
		if s.ladder[i].Contains(balance) {
			level := s.ladder[i]
			return &level
		}
	}
	return nil
}

// Resolver exposes tier lookup as the callback storage mutations run inside
// their transaction.
func (s *LevelService) Resolver() repository.LevelResolver {
	return func(balance int64) *int64 {
		if level := s.LevelFor(balance); level != nil {
			id := level.ID
			return &id
		}
		return nil
	}
}

// CheckUpgrade compares the user's stored level against the one derived from
// newBalance and persists the new reference when they differ. Used by the
// repair path; regular mutations re-derive the level inside their own
// storage transaction.
func (s *LevelService) CheckUpgrade(ctx context.Context, userID int64, newBalance int64) (*LevelChange, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	level := s.LevelFor(newBalance)
	var newID *int64
	if level != nil {
		id := level.ID
		newID = &id
	}

	change := &LevelChange{OldLevelID: user.LevelID, NewLevelID: newID, NewLevel: level}
	if sameLevelID(user.LevelID, newID) {
		return change, nil
	}

	if err := s.users.SetLevel(ctx, userID, newID); err != nil {
		return nil, err
	}
	change.Changed = true
	return change, nil
}

// ValidateLadder checks a sorted-or-unsorted ladder for inverted, overlapping,
// or gapped ranges.
func ValidateLadder(levels []model.UserLevel) []LadderIssue {
	sorted := make([]model.UserLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPoints < sorted[j].MinPoints })

	var issues []LadderIssue
	for i, level := range sorted {
		if level.MaxPoints != nil && *level.MaxPoints <= level.MinPoints {
			issues = append(issues, LadderIssue{
				LevelName: level.Name,
				Kind:      "inverted",
				Detail:    fmt.Sprintf("max_points %d not above min_points %d", *level.MaxPoints, level.MinPoints),
			})
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.MaxPoints == nil {
			issues = append(issues, LadderIssue{
				LevelName: prev.Name,
				Kind:      "overlap",
				Detail:    fmt.Sprintf("unbounded level precedes %q", level.Name),
			})
			continue
		}
		switch {
		case *prev.MaxPoints > level.MinPoints:
			issues = append(issues, LadderIssue{
				LevelName: level.Name,
				Kind:      "overlap",
				Detail:    fmt.Sprintf("min_points %d overlaps %q ending at %d", level.MinPoints, prev.Name, *prev.MaxPoints),
			})
		case *prev.MaxPoints < level.MinPoints:
			issues = append(issues, LadderIssue{
				LevelName: level.Name,
				Kind:      "gap",
				Detail:    fmt.Sprintf("balances in [%d, %d) map to no level", *prev.MaxPoints, level.MinPoints),
			})
		}
	}
	return issues
}

func sameLevelID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
