package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	cache := NewRedisCache(client, time.Hour)

	_, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	value, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)

	assert.True(t, mr.Exists(redisPrefix+"k"))
	assert.Equal(t, time.Hour, mr.TTL(redisPrefix+"k"))

	mr.FastForward(2 * time.Hour)
	_, found, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	cache := NewRedisCache(client, 0)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	assert.Zero(t, mr.TTL(redisPrefix+"k"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	cache := NewRedisCache(client, 0)
	mr.Close()

	_, _, err = cache.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestCachingCompleter_WithRedis(t *testing.T) {
	client, _ := setupTestRedis(t)
	calls := 0
	c, err := NewCachingCompleter(completerFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "summary", nil
	}), NewRedisCache(client, time.Minute), "m")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := c.Complete(context.Background(), "Summarize this")
		require.NoError(t, err)
		assert.Equal(t, "summary", got)
	}
	assert.Equal(t, 1, calls)
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
