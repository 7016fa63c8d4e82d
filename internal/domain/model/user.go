package model

import "time"

// User carries the account state the ledger maintains. Points is a
// denormalized cache of the transaction sum; the ledger is always the
// authoritative source.
type User struct {
	ID        int64
	CompanyID *int64
	Points    int64
	LevelID   *int64
	CreatedAt time.Time
}
