package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "games", []byte(`[1,2]`), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))

	val, ok, err := c.Get(ctx, "games")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1,2]`), val)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "games")
	assert.False(t, ok, "entry should expire at its ttl")

	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "forever"))
	_, ok, _ = c.Get(ctx, "forever")
	assert.False(t, ok)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	val, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), val)
}

func TestMemoryCachePurge(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))

	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, c.Purge())
	_, ok, _ := c.Get(ctx, "b")
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New(Config{Provider: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(Config{Provider: "memcached"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(Config{Provider: "redis", RedisURL: "not-a-url"}, zap.NewNop())
	assert.Error(t, err)
}
