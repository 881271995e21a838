package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoCacheBasicOps(t *testing.T) {
	c := NewGoCache(DefaultConfig().Local)
	defer c.Close()
	ctx := context.Background()

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, "v", v)
	assert.True(t, c.Exists(ctx, "k"))

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, c.Exists(ctx, "k"))
}

func TestGoCacheExpiration(t *testing.T) {
	c := NewGoCache(LocalConfig{DefaultExpiration: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, found := c.Get(ctx, "short")
	assert.False(t, found)
}

func TestGoCacheClear(t *testing.T) {
	c := NewGoCache(DefaultConfig().Local)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", "1", time.Minute)
	c.Set(ctx, "b", "2", time.Minute)
	assert.NoError(t, c.Clear(ctx))
	assert.False(t, c.Exists(ctx, "a"))
	assert.False(t, c.Exists(ctx, "b"))
}

func TestNewFallsBackToLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = "redis"
	cfg.Redis.Addr = "127.0.0.1:1" // 不可达
	cfg.Redis.DialTimeout = 100 * time.Millisecond

	c := New(cfg)
	defer c.Close()

	ctx := context.Background()
	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestNewUnknownTypeUsesLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = "memcached"

	c := New(cfg)
	defer c.Close()
	assert.NoError(t, c.Set(context.Background(), "k", "v", time.Minute))
}
