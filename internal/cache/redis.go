package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"stockroom/internal/core"
)

// DefaultRedisKey is the default key used to store the item listing in Redis.
const DefaultRedisKey = "stockroom:items"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Key prefixes the generation and listing keys (defaults to "stockroom:items")
	Key string

	// TTL is the time-to-live for cached data (defaults to DefaultTTL)
	TTL time.Duration
}

// RedisCache implements ItemCache using Redis for distributed storage.
// This is suitable for multi-instance deployments behind a load balancer.
//
// The generation lives in "<key>:gen" and each listing is stored under
// "<key>:<generation>". A fill that lost a race with Invalidate lands under
// a key nobody reads any more and expires with the TTL.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := newRedisCache(client, cfg.Key, cfg.TTL)
	slog.Info("redis cache connected", "key", c.key, "ttl", c.ttl)
	return c, nil
}

func newRedisCache(client redis.UniversalClient, key string, ttl time.Duration) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, key: key, ttl: ttl}
}

func (c *RedisCache) genKey() string {
	return c.key + ":gen"
}

func (c *RedisCache) listingKey(gen uint64) string {
	return c.key + ":" + strconv.FormatUint(gen, 10)
}

// Generation reads the shared generation counter. A missing counter is generation 0.
func (c *RedisCache) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Get(ctx, c.genKey()).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get cache generation from redis: %w", err)
	}
	return gen, nil
}

// Items retrieves the listing cached for the current generation.
func (c *RedisCache) Items(ctx context.Context) ([]*core.Item, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, c.listingKey(gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get items from redis: %w", err)
	}

	var items []*core.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("failed to parse items from redis: %w", err)
	}
	return items, true, nil
}

// SetItems stores the listing under its generation's key with the configured TTL.
func (c *RedisCache) SetItems(ctx context.Context, gen uint64, items []*core.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	if err := c.client.Set(ctx, c.listingKey(gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set items in redis: %w", err)
	}
	return nil
}

// Invalidate advances the generation and deletes the previous listing.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.genKey()).Uint64()
	if err != nil {
		return fmt.Errorf("failed to invalidate items in redis: %w", err)
	}
	if err := c.client.Del(ctx, c.listingKey(gen-1)).Err(); err != nil {
		return fmt.Errorf("failed to delete stale listing in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
