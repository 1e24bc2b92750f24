//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewRedisCache(RedisConfig{URL: "redis://" + endpoint, Key: "test:items", TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Items(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetItems(ctx, gen, sampleItems()))
	items, ok, err := c.Items(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "SKU002", items[1].SKU)
	assert.Equal(t, "120.00", items[1].Price.String())

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Items(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A fill loaded before the invalidate must not become visible.
	require.NoError(t, c.SetItems(ctx, gen, sampleItems()))
	_, ok, err = c.Items(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	require.NoError(t, c.SetItems(ctx, next, sampleItems()[:1]))
	items, ok, err = c.Items(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, items, 1)
}
