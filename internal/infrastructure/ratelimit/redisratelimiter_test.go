package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{
		RequestsPerMinute: 5,
	}

	key := "feed:1"

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, key, config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_Allow_PerHour(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{
		RequestsPerHour: 3,
	}

	key := "feed:2"

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, key, config)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_Allow_ZeroLimitDisablesWindow(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{}

	key := "feed:3"

	for i := 0; i < 50; i++ {
		allowed, err := limiter.Allow(ctx, key, config)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{
		RequestsPerMinute: 1,
	}

	allowed, err := limiter.Allow(ctx, "feed:4", config)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "feed:4", config)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different feed has its own window.
	allowed, err = limiter.Allow(ctx, "feed:5", config)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_GetRemaining(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{
		RequestsPerMinute: 10,
	}

	key := "feed:6"

	for i := 0; i < 4; i++ {
		_, err := limiter.Allow(ctx, key, config)
		require.NoError(t, err)
	}

	used, err := limiter.GetRemaining(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), used)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	config := Config{
		RequestsPerMinute: 1,
	}

	key := "feed:7"

	allowed, err := limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, key))

	allowed, err = limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.True(t, allowed)
}
