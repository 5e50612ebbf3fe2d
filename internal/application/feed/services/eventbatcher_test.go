package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stixgate/internal/shared/logger"
)

type quietLogger struct{}

func (quietLogger) Debug(msg string, args ...any)           {}
func (quietLogger) Info(msg string, args ...any)            {}
func (quietLogger) Warn(msg string, args ...any)            {}
func (quietLogger) Error(msg string, args ...any)           {}
func (l quietLogger) With(args ...any) logger.Interface     { return l }
func (l quietLogger) Named(name string) logger.Interface    { return l }
func (quietLogger) Debugw(msg string, keysAndValues ...any) {}
func (quietLogger) Infow(msg string, keysAndValues ...any)  {}
func (quietLogger) Warnw(msg string, keysAndValues ...any)  {}
func (quietLogger) Errorw(msg string, keysAndValues ...any) {}

type recordingObserver struct {
	mu      sync.Mutex
	batches []*FeedBatch
}

func (o *recordingObserver) OnFeedBatch(batch *FeedBatch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, batch)
}

func (o *recordingObserver) snapshot() []*FeedBatch {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*FeedBatch, len(o.batches))
	copy(out, o.batches)
	return out
}

func waitForBatches(t *testing.T, observer *recordingObserver, n int) []*FeedBatch {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := observer.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d batches, got %d", n, len(observer.snapshot()))
	return nil
}

func TestEventBatcher_FoldsEventsWithinQuietPeriod(t *testing.T) {
	observer := &recordingObserver{}
	batcher := NewEventBatcher(50*time.Millisecond, observer, quietLogger{})
	defer batcher.Stop()

	batcher.Add(FeedEvent{FeedID: 1, FeedName: "feed-a", Status: "success", ObjectsProcessed: 5})
	batcher.Add(FeedEvent{FeedID: 1, FeedName: "feed-a", Status: "partial", ObjectsProcessed: 3, ObjectsFailed: 2})

	got := waitForBatches(t, observer, 1)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].FeedID)
	assert.Equal(t, 2, got[0].Polls)
	assert.Equal(t, 8, got[0].ObjectsProcessed)
	assert.Equal(t, 2, got[0].ObjectsFailed)
	assert.Equal(t, "partial", got[0].LastStatus)
}

func TestEventBatcher_SeparateFeedsFlushSeparately(t *testing.T) {
	observer := &recordingObserver{}
	batcher := NewEventBatcher(30*time.Millisecond, observer, quietLogger{})
	defer batcher.Stop()

	batcher.Add(FeedEvent{FeedID: 1, FeedName: "feed-a", Status: "success"})
	batcher.Add(FeedEvent{FeedID: 2, FeedName: "feed-b", Status: "failure"})

	got := waitForBatches(t, observer, 2)
	ids := map[uint]bool{}
	for _, b := range got {
		ids[b.FeedID] = true
	}
	assert.True(t, ids[1])
	assert.True(t, ids[2])
}

func TestEventBatcher_NewEventRestartsQuietPeriod(t *testing.T) {
	observer := &recordingObserver{}
	batcher := NewEventBatcher(80*time.Millisecond, observer, quietLogger{})
	defer batcher.Stop()

	batcher.Add(FeedEvent{FeedID: 1, Status: "success"})
	time.Sleep(50 * time.Millisecond)
	// Still inside the quiet period: nothing flushed yet.
	assert.Empty(t, observer.snapshot())

	batcher.Add(FeedEvent{FeedID: 1, Status: "success"})
	time.Sleep(50 * time.Millisecond)
	// The second event restarted the timer.
	assert.Empty(t, observer.snapshot())

	got := waitForBatches(t, observer, 1)
	assert.Equal(t, 2, got[0].Polls)
}

func TestEventBatcher_StopFlushesPending(t *testing.T) {
	observer := &recordingObserver{}
	batcher := NewEventBatcher(time.Hour, observer, quietLogger{})

	batcher.Add(FeedEvent{FeedID: 1, Status: "success", ObjectsProcessed: 4})
	batcher.Stop()

	got := observer.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ObjectsProcessed)

	// Events after Stop are dropped.
	batcher.Add(FeedEvent{FeedID: 2, Status: "success"})
	assert.Len(t, observer.snapshot(), 1)
}
