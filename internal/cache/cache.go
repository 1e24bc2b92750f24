// Package cache provides a read-through cache for the full item listing.
// Supports both local (in-memory) and Redis backends for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core"
)

// Type constants for cache backends
const (
	TypeNone  = "none"
	TypeLocal = "local"
	TypeRedis = "redis"
)

// DefaultTTL bounds how long a cached listing may be served after a write
// performed by another instance.
const DefaultTTL = 30 * time.Second

// ItemCache stores the unfiltered item listing.
// Implementations must be safe for concurrent use.
type ItemCache interface {
	// Items returns the cached listing. The bool is false on a miss.
	Items(ctx context.Context) ([]*core.Item, bool, error)

	// Generation returns the current listing generation. Callers read it
	// before loading the listing from the store and pass it to SetItems.
	Generation(ctx context.Context) (uint64, error)

	// SetItems stores a listing loaded at generation gen. The listing is
	// dropped if an Invalidate happened since, so a slow reader cannot
	// overwrite the cache with data older than a completed write.
	SetItems(ctx context.Context, gen uint64, items []*core.Item) error

	// Invalidate drops the cached listing and advances the generation;
	// called after every write.
	Invalidate(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// Noop is an ItemCache that never hits.
type Noop struct{}

func (Noop) Items(context.Context) ([]*core.Item, bool, error)    { return nil, false, nil }
func (Noop) Generation(context.Context) (uint64, error)           { return 0, nil }
func (Noop) SetItems(context.Context, uint64, []*core.Item) error { return nil }
func (Noop) Invalidate(context.Context) error                     { return nil }
func (Noop) Close() error                                         { return nil }

func cloneItems(items []*core.Item) []*core.Item {
	out := make([]*core.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Config selects and configures the cache backend.
type Config struct {
	// Type is "none", "local" or "redis" (default: none)
	Type  string
	TTL   time.Duration
	Redis RedisConfig
}

// New creates the ItemCache described by cfg.
func New(cfg Config) (ItemCache, error) {
	switch cfg.Type {
	case "", TypeNone:
		return Noop{}, nil
	case TypeLocal:
		return NewLocalCache(cfg.TTL), nil
	case TypeRedis:
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("redis URL is required for cache type %q", TypeRedis)
		}
		redisCfg := cfg.Redis
		if redisCfg.TTL == 0 {
			redisCfg.TTL = cfg.TTL
		}
		return NewRedisCache(redisCfg)
	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: none, local, redis)", cfg.Type)
	}
}
