package test

import "context"

// NotifierRecorder captures outbound notification events.
type NotifierRecorder struct {
	Earned       []NotificationEvent
	Spent        []NotificationEvent
	LevelChanges []LevelChangeEvent
}

// NotificationEvent is one recorded earn/spend notification.
type NotificationEvent struct {
	UserID      int64
	Amount      int64
	Description string
}

// LevelChangeEvent is one recorded level change notification.
type LevelChangeEvent struct {
	UserID     int64
	OldLevelID *int64
	NewLevelID *int64
}

func (r *NotifierRecorder) PointsEarned(ctx context.Context, userID int64, amount int64, description string) {
	r.Earned = append(r.Earned, NotificationEvent{UserID: userID, Amount: amount, Description: description})
}

func (r *NotifierRecorder) PointsSpent(ctx context.Context, userID int64, amount int64, description string) {
	r.Spent = append(r.Spent, NotificationEvent{UserID: userID, Amount: amount, Description: description})
}

func (r *NotifierRecorder) LevelChanged(ctx context.Context, userID int64, oldLevelID, newLevelID *int64) {
	r.LevelChanges = append(r.LevelChanges, LevelChangeEvent{UserID: userID, OldLevelID: oldLevelID, NewLevelID: newLevelID})
}

// BalanceCacheRecorder tracks cache traffic for assertions.
type BalanceCacheRecorder struct {
	Values      map[int64]int64
	Invalidated []int64
}

// NewBalanceCacheRecorder constructs the recorder with an initialized map.
func NewBalanceCacheRecorder() *BalanceCacheRecorder {
	return &BalanceCacheRecorder{Values: make(map[int64]int64)}
}

func (c *BalanceCacheRecorder) Get(userID int64) (int64, bool) {
	v, ok := c.Values[userID]
	return v, ok
}

func (c *BalanceCacheRecorder) Set(userID int64, balance int64) {
	c.Values[userID] = balance
}

func (c *BalanceCacheRecorder) Invalidate(userID int64) {
	delete(c.Values, userID)
	c.Invalidated = append(c.Invalidated, userID)
}
