package cache

import (
	"testing"
	"time"
)

func TestTTLCacheHitAndExpiry(t *testing.T) {
	c := NewTTL(time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	if _, ok := c.Get(1); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(1, 150)
	if got, ok := c.Get(1); !ok || got != 150 {
		t.Fatalf("expected hit with 150, got %d (%v)", got, ok)
	}

	now = now.Add(time.Minute + time.Second)
	if _, ok := c.Get(1); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTL(time.Minute)
	c.Set(7, 30)
	c.Invalidate(7)
	if _, ok := c.Get(7); ok {
		t.Fatal("expected invalidated entry to miss")
	}
}

func TestTTLCacheDisabled(t *testing.T) {
	c := NewTTL(0)
	c.Set(1, 99)
	if _, ok := c.Get(1); ok {
		t.Fatal("non-positive ttl must disable caching")
	}
}
