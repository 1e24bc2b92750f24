package cache

import (
	"context"
	"sync"
	"time"

	"stockroom/internal/core"
)

// LocalCache implements ItemCache in process memory.
// This is suitable for single-instance deployments.
type LocalCache struct {
	mu      sync.RWMutex
	items   []*core.Item
	expires time.Time
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewLocalCache creates an empty local cache. A zero ttl selects DefaultTTL.
func NewLocalCache(ttl time.Duration) *LocalCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LocalCache{ttl: ttl, now: time.Now}
}

// Items returns a copy of the cached listing when present and not expired.
func (c *LocalCache) Items(_ context.Context) ([]*core.Item, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.items == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return cloneItems(c.items), true, nil
}

// Generation returns the number of invalidations so far.
func (c *LocalCache) Generation(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// SetItems replaces the cached listing unless it was loaded before the last
// invalidation.
func (c *LocalCache) SetItems(_ context.Context, gen uint64, items []*core.Item) error {
	snapshot := cloneItems(items)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.items = snapshot
	c.expires = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached listing and advances the generation.
func (c *LocalCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.gen++
	return nil
}

// Close is a no-op for local cache.
func (c *LocalCache) Close() error {
	return nil
}
