package cache

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

func TestFeedPollLock_TryAcquire(t *testing.T) {
	lock := NewFeedPollLock(setupTestRedis(t))
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, 1, "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// A second holder is refused without blocking.
	acquired, err = lock.TryAcquire(ctx, 1, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// A different feed's lock is independent.
	acquired, err = lock.TryAcquire(ctx, 2, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestFeedPollLock_ReleaseRequiresMatchingToken(t *testing.T) {
	lock := NewFeedPollLock(setupTestRedis(t))
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, 1, "worker-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// A stale holder cannot release someone else's lock.
	require.NoError(t, lock.Release(ctx, 1, "worker-b"))
	acquired, err = lock.TryAcquire(ctx, 1, "worker-c", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// The real holder can.
	require.NoError(t, lock.Release(ctx, 1, "worker-a"))
	acquired, err = lock.TryAcquire(ctx, 1, "worker-c", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestFeedPollLock_ReleaseUnheldLockIsNoop(t *testing.T) {
	lock := NewFeedPollLock(setupTestRedis(t))
	assert.NoError(t, lock.Release(context.Background(), 99, "nobody"))
}

func TestFeedPollLock_Extend(t *testing.T) {
	lock := NewFeedPollLock(setupTestRedis(t))
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, 1, "worker-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	ok, err := lock.Extend(ctx, 1, "worker-a", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// A non-holder cannot extend.
	ok, err = lock.Extend(ctx, 1, "worker-b", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// An unheld lock cannot be extended.
	ok, err = lock.Extend(ctx, 42, "worker-a", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
