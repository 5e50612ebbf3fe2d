package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedLockKeyPrefix = "feed:poll:lock:"

// releaseScript deletes the lock only when it is still held by the caller,
// so a poll running past the TTL cannot release a lock another worker has
// since acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// FeedPollLock provides per-feed mutual exclusion for polls across worker
// instances. Acquisition never blocks: a held lock means another worker owns
// the poll and the caller should skip.
type FeedPollLock struct {
	client *redis.Client
}

// NewFeedPollLock creates a new FeedPollLock instance.
func NewFeedPollLock(client *redis.Client) *FeedPollLock {
	return &FeedPollLock{client: client}
}

func (l *FeedPollLock) buildKey(feedID uint) string {
	return fmt.Sprintf("%s%d", feedLockKeyPrefix, feedID)
}

// TryAcquire atomically acquires the lock for a feed using SetNX. Returns
// true if acquired. token identifies the holder and is required to release.
func (l *FeedPollLock) TryAcquire(ctx context.Context, feedID uint, token string, ttl time.Duration) (bool, error) {
	key := l.buildKey(feedID)

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire feed poll lock: %w", err)
	}

	return acquired, nil
}

// Release releases the lock if the token still matches the holder.
func (l *FeedPollLock) Release(ctx context.Context, feedID uint, token string) error {
	key := l.buildKey(feedID)

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release feed poll lock: %w", err)
	}

	return nil
}

// Extend refreshes the TTL while a long poll is still running. Returns false
// when the lock is no longer held by the caller.
func (l *FeedPollLock) Extend(ctx context.Context, feedID uint, token string, ttl time.Duration) (bool, error) {
	key := l.buildKey(feedID)

	val, err := l.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to check feed poll lock: %w", err)
	}
	if val != token {
		return false, nil
	}

	if err := l.client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to extend feed poll lock: %w", err)
	}

	return true, nil
}
