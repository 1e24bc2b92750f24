package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core"
)

func sampleItems() []*core.Item {
	return []*core.Item{
		{ID: 1, ProductName: "Widget 1", SKU: "SKU001", Quantity: 4, Price: core.MustMoney("9.99"), Category: "Toys"},
		{ID: 2, ProductName: "Gadget 2", SKU: "SKU002", Quantity: 40, Price: core.MustMoney("120"), Category: "Home"},
	}
}

func TestLocalCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		c := NewLocalCache(time.Minute)

		items, ok, err := c.Items(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, items)

		require.NoError(t, c.SetItems(ctx, 0, sampleItems()))

		items, ok, err = c.Items(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, sampleItems(), items)
	})

	t.Run("empty listing is a hit", func(t *testing.T) {
		c := NewLocalCache(time.Minute)
		require.NoError(t, c.SetItems(ctx, 0, []*core.Item{}))

		items, ok, err := c.Items(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, items)
	})

	t.Run("returned items are copies", func(t *testing.T) {
		c := NewLocalCache(time.Minute)
		src := sampleItems()
		require.NoError(t, c.SetItems(ctx, 0, src))
		src[0].Quantity = 999

		items, _, err := c.Items(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, items[0].Quantity)

		items[1].Quantity = 0
		again, _, err := c.Items(ctx)
		require.NoError(t, err)
		assert.Equal(t, 40, again[1].Quantity)
	})

	t.Run("invalidate", func(t *testing.T) {
		c := NewLocalCache(time.Minute)
		require.NoError(t, c.SetItems(ctx, 0, sampleItems()))
		require.NoError(t, c.Invalidate(ctx))

		_, ok, err := c.Items(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expiry", func(t *testing.T) {
		c := NewLocalCache(time.Second)
		now := time.Unix(1000, 0)
		c.now = func() time.Time { return now }

		require.NoError(t, c.SetItems(ctx, 0, sampleItems()))
		now = now.Add(999 * time.Millisecond)
		_, ok, _ := c.Items(ctx)
		assert.True(t, ok)

		now = now.Add(time.Millisecond)
		_, ok, _ = c.Items(ctx)
		assert.False(t, ok)
	})

	t.Run("fill from before an invalidate is dropped", func(t *testing.T) {
		c := NewLocalCache(time.Minute)
		gen, err := c.Generation(ctx)
		require.NoError(t, err)

		require.NoError(t, c.Invalidate(ctx))
		require.NoError(t, c.SetItems(ctx, gen, sampleItems()))

		_, ok, err := c.Items(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		gen, err = c.Generation(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), gen)
		require.NoError(t, c.SetItems(ctx, gen, sampleItems()))
		_, ok, err = c.Items(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("default ttl", func(t *testing.T) {
		assert.Equal(t, DefaultTTL, NewLocalCache(0).ttl)
	})
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c ItemCache = Noop{}
	require.NoError(t, c.SetItems(ctx, 0, sampleItems()))
	_, ok, err := c.Items(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.Close())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    interface{}
		wantErr string
	}{
		{name: "empty type", cfg: Config{}, want: Noop{}},
		{name: "none", cfg: Config{Type: TypeNone}, want: Noop{}},
		{name: "local", cfg: Config{Type: TypeLocal, TTL: time.Minute}, want: &LocalCache{}},
		{name: "redis without url", cfg: Config{Type: TypeRedis}, wantErr: "redis URL is required"},
		{name: "redis bad url", cfg: Config{Type: TypeRedis, Redis: RedisConfig{URL: "://nope"}}, wantErr: "invalid redis URL"},
		{name: "unknown", cfg: Config{Type: "memcached"}, wantErr: "unknown cache type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}
}
