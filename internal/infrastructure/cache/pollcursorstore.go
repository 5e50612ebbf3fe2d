package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pollCursorKeyPrefix = "feed:poll:cursor:"

// PollCursorStore persists each feed's added_after checkpoint across
// restarts, so a poll resumes where the previous successful one stopped
// instead of re-fetching the whole collection.
type PollCursorStore struct {
	client *redis.Client
}

// NewPollCursorStore creates a new PollCursorStore instance.
func NewPollCursorStore(client *redis.Client) *PollCursorStore {
	return &PollCursorStore{client: client}
}

func (s *PollCursorStore) buildKey(feedID uint) string {
	return fmt.Sprintf("%s%d", pollCursorKeyPrefix, feedID)
}

// GetCursor returns the saved checkpoint, or the zero time if none exists.
func (s *PollCursorStore) GetCursor(ctx context.Context, feedID uint) (time.Time, error) {
	val, err := s.client.Get(ctx, s.buildKey(feedID)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get poll cursor: %w", err)
	}

	cursor, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse poll cursor: %w", err)
	}

	return cursor, nil
}

// SaveCursor persists the checkpoint for a feed.
func (s *PollCursorStore) SaveCursor(ctx context.Context, feedID uint, cursor time.Time) error {
	val := cursor.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.buildKey(feedID), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to save poll cursor: %w", err)
	}
	return nil
}

// ClearCursor removes the checkpoint, forcing the next poll to start from
// the beginning of the collection.
func (s *PollCursorStore) ClearCursor(ctx context.Context, feedID uint) error {
	if err := s.client.Del(ctx, s.buildKey(feedID)).Err(); err != nil {
		return fmt.Errorf("failed to clear poll cursor: %w", err)
	}
	return nil
}
