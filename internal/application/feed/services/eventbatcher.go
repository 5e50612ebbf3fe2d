// Package services holds long-running application services supporting the
// feed pipeline.
package services

import (
	"sync"
	"time"

	"stixgate/internal/shared/goroutine"
	"stixgate/internal/shared/logger"
)

// FeedEvent is one poll outcome folded into a batch.
type FeedEvent struct {
	FeedID           uint
	FeedName         string
	Status           string
	ObjectsProcessed int
	ObjectsFailed    int
}

// FeedBatch is the debounced summary flushed to observers.
type FeedBatch struct {
	FeedID           uint
	FeedName         string
	Polls            int
	ObjectsProcessed int
	ObjectsFailed    int
	LastStatus       string
	FirstEventAt     time.Time
	LastEventAt      time.Time
}

// FeedEventObserver receives flushed batches.
type FeedEventObserver interface {
	OnFeedBatch(batch *FeedBatch)
}

// EventBatcher debounces per-feed poll events: a feed's batch is flushed
// once its events have been quiet for the configured period, so a burst of
// retries produces one summary instead of one notification per poll.
type EventBatcher struct {
	quietPeriod time.Duration
	observer    FeedEventObserver
	logger      logger.Interface

	mu      sync.Mutex
	pending map[uint]*FeedBatch
	timers  map[uint]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewEventBatcher creates a batcher flushing to the given observer.
func NewEventBatcher(quietPeriod time.Duration, observer FeedEventObserver, log logger.Interface) *EventBatcher {
	return &EventBatcher{
		quietPeriod: quietPeriod,
		observer:    observer,
		logger:      log,
		pending:     make(map[uint]*FeedBatch),
		timers:      make(map[uint]*time.Timer),
	}
}

// Add folds an event into the feed's pending batch and restarts its quiet
// period timer.
func (b *EventBatcher) Add(event FeedEvent) {
	now := time.Now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	batch, ok := b.pending[event.FeedID]
	if !ok {
		batch = &FeedBatch{
			FeedID:       event.FeedID,
			FeedName:     event.FeedName,
			FirstEventAt: now,
		}
		b.pending[event.FeedID] = batch
	}
	batch.Polls++
	batch.ObjectsProcessed += event.ObjectsProcessed
	batch.ObjectsFailed += event.ObjectsFailed
	batch.LastStatus = event.Status
	batch.LastEventAt = now

	if timer, ok := b.timers[event.FeedID]; ok {
		timer.Stop()
	}
	feedID := event.FeedID
	b.timers[feedID] = time.AfterFunc(b.quietPeriod, func() {
		b.flush(feedID)
	})
}

// Stop flushes all pending batches and prevents further additions.
func (b *EventBatcher) Stop() {
	b.mu.Lock()
	b.stopped = true
	var feedIDs []uint
	for feedID, timer := range b.timers {
		timer.Stop()
		feedIDs = append(feedIDs, feedID)
	}
	b.mu.Unlock()

	for _, feedID := range feedIDs {
		b.flush(feedID)
	}
	b.wg.Wait()
}

func (b *EventBatcher) flush(feedID uint) {
	b.mu.Lock()
	batch, ok := b.pending[feedID]
	if ok {
		delete(b.pending, feedID)
		delete(b.timers, feedID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	b.wg.Add(1)
	goroutine.SafeGo(b.logger, "feed-batch-flush", func() {
		defer b.wg.Done()
		b.observer.OnFeedBatch(batch)
		b.logger.Debugw("feed batch flushed",
			"feed_id", batch.FeedID,
			"polls", batch.Polls,
			"processed", batch.ObjectsProcessed,
			"failed", batch.ObjectsFailed,
		)
	})
}
