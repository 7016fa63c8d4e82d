// Package cache provides the per-process balance cache the ledger engine
// consults before touching storage. It is a single-node optimization only:
// every mutating call invalidates the entry, and correctness never depends
// on a hit. Deployments needing a shared cache swap the interface.
package cache

import (
	"sync"
	"time"
)

// BalanceCache stores recently read balances keyed by user id.
type BalanceCache interface {
	Get(userID int64) (int64, bool)
	Set(userID int64, balance int64)
	Invalidate(userID int64)
}

type entry struct {
	balance   int64
	expiresAt time.Time
}

// TTLCache is a mutex-guarded map with per-entry expiry.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]entry
	now     func() time.Time
}

// NewTTL constructs a TTLCache. A non-positive ttl disables caching entirely:
// Get always misses.
func NewTTL(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[int64]entry),
		now:     time.Now,
	}
}

// Get returns the cached balance when present and fresh.
func (c *TTLCache) Get(userID int64) (int64, bool) {
	if c.ttl <= 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return 0, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, userID)
		return 0, false
	}
	return e.balance, true
}

// Set stores the balance with the configured TTL.
func (c *TTLCache) Set(userID int64, balance int64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry{balance: balance, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops the entry for the user.
func (c *TTLCache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
