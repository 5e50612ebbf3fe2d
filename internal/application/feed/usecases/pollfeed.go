// Package usecases orchestrates feed consumption: polling, sweeping due
// feeds, retrying failures, and reporting status.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/domain/stix"
	"stixgate/internal/infrastructure/cache"
	"stixgate/internal/infrastructure/metrics"
	"stixgate/internal/infrastructure/ratelimit"
	"stixgate/internal/infrastructure/taxii"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/config"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

const (
	// pollLockTTL bounds how long a crashed worker can block a feed.
	pollLockTTL = 15 * time.Minute
	// maxRecordedObjectErrors caps per-object entries in the error log so a
	// fully malformed page cannot grow the row without bound.
	maxRecordedObjectErrors = 25
	// rateLimitRetryDelay is how long to wait before re-checking a saturated
	// rate limit window.
	rateLimitRetryDelay = time.Second
)

// PollResult summarizes one poll attempt.
type PollResult struct {
	FeedID           uint
	FeedName         string
	Skipped          bool
	DryRun           bool
	Status           vo.PollStatus
	ObjectsRetrieved int
	ObjectsProcessed int
	ObjectsFailed    int
	ErrorMessage     string
	Duration         time.Duration
}

// PollFeedUseCase executes a single poll against one feed source: acquire
// the per-feed lock, page through the remote collection, validate and store
// objects, and record the outcome in a consumption log.
type PollFeedUseCase struct {
	sourceRepo feed.SourceRepository
	logRepo    feed.LogRepository
	objectRepo stix.Repository
	factory    *stix.Factory
	lock       *cache.FeedPollLock
	cursors    *cache.PollCursorStore
	limiter    ratelimit.RateLimiter
	feedCfg    config.FeedConfig
	logger     logger.Interface
}

// NewPollFeedUseCase creates a new poll use case.
func NewPollFeedUseCase(
	sourceRepo feed.SourceRepository,
	logRepo feed.LogRepository,
	objectRepo stix.Repository,
	factory *stix.Factory,
	lock *cache.FeedPollLock,
	cursors *cache.PollCursorStore,
	limiter ratelimit.RateLimiter,
	feedCfg config.FeedConfig,
	logger logger.Interface,
) *PollFeedUseCase {
	return &PollFeedUseCase{
		sourceRepo: sourceRepo,
		logRepo:    logRepo,
		objectRepo: objectRepo,
		factory:    factory,
		lock:       lock,
		cursors:    cursors,
		limiter:    limiter,
		feedCfg:    feedCfg,
		logger:     logger,
	}
}

// Execute polls one feed. With dryRun set, objects are retrieved and
// validated but nothing is persisted: no objects, no log, no poll time.
func (uc *PollFeedUseCase) Execute(ctx context.Context, feedID uint, dryRun bool) (*PollResult, error) {
	source, err := uc.sourceRepo.GetByID(ctx, feedID)
	if err != nil {
		uc.logger.Errorw("failed to load feed source", "feed_id", feedID, "error", err)
		return nil, fmt.Errorf("failed to load feed source: %w", err)
	}
	if !source.IsActive() {
		return nil, errors.NewValidationError(fmt.Sprintf("feed %q is inactive", source.Name()))
	}

	token := uuid.NewString()
	acquired, err := uc.lock.TryAcquire(ctx, feedID, token, pollLockTTL)
	if err != nil {
		uc.logger.Errorw("failed to acquire feed poll lock", "feed_id", feedID, "error", err)
		return nil, fmt.Errorf("failed to acquire feed poll lock: %w", err)
	}
	if !acquired {
		metrics.FeedPollsSkipped.Inc()
		uc.logger.Infow("poll skipped, feed is locked by another worker", "feed_id", feedID)
		return &PollResult{FeedID: feedID, FeedName: source.Name(), Skipped: true, DryRun: dryRun}, nil
	}
	defer func() {
		if err := uc.lock.Release(context.WithoutCancel(ctx), feedID, token); err != nil {
			uc.logger.Warnw("failed to release feed poll lock", "feed_id", feedID, "error", err)
		}
	}()

	start := biztime.NowUTC()
	result, err := uc.poll(ctx, source, start, dryRun)
	if err != nil {
		return nil, err
	}

	result.Duration = biztime.NowUTC().Sub(start)
	metrics.FeedPolls.WithLabelValues(result.Status.String()).Inc()
	metrics.PollDuration.Observe(result.Duration.Seconds())

	uc.logger.Infow("feed poll finished",
		"feed_id", feedID,
		"feed", source.Name(),
		"status", result.Status.String(),
		"retrieved", result.ObjectsRetrieved,
		"processed", result.ObjectsProcessed,
		"failed", result.ObjectsFailed,
		"dry_run", dryRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (uc *PollFeedUseCase) poll(ctx context.Context, source *feed.Source, start time.Time, dryRun bool) (*PollResult, error) {
	log, err := feed.OpenLog(source.ID(), start)
	if err != nil {
		return nil, fmt.Errorf("failed to open consumption log: %w", err)
	}
	if !dryRun {
		if err := uc.logRepo.Create(ctx, log); err != nil {
			return nil, fmt.Errorf("failed to create consumption log: %w", err)
		}
	}

	cursor, err := uc.cursors.GetCursor(ctx, source.ID())
	if err != nil {
		uc.logger.Warnw("failed to load poll cursor, fetching full collection",
			"feed_id", source.ID(), "error", err)
		cursor = time.Time{}
	}

	uc.fetchAndStore(ctx, source, log, cursor, dryRun)

	log.Finalize(biztime.NowUTC())
	if !dryRun {
		if err := uc.logRepo.Update(ctx, log); err != nil {
			uc.logger.Errorw("failed to persist consumption log", "feed_id", source.ID(), "error", err)
			return nil, fmt.Errorf("failed to persist consumption log: %w", err)
		}

		// last_poll_time records the poll's start so a slow poll does not
		// push the next scheduling window out.
		source.RecordPoll(start)
		if err := uc.sourceRepo.Update(ctx, source); err != nil {
			uc.logger.Errorw("failed to persist feed poll time", "feed_id", source.ID(), "error", err)
			return nil, fmt.Errorf("failed to persist feed poll time: %w", err)
		}
	}

	return &PollResult{
		FeedID:           source.ID(),
		FeedName:         source.Name(),
		DryRun:           dryRun,
		Status:           log.Status(),
		ObjectsRetrieved: log.ObjectsRetrieved(),
		ObjectsProcessed: log.ObjectsProcessed(),
		ObjectsFailed:    log.ObjectsFailed(),
		ErrorMessage:     log.ErrorMessage(),
	}, nil
}

// fetchAndStore pages through the remote collection, recording all outcomes
// on the consumption log. Request failures stop the poll; object failures
// only downgrade it.
func (uc *PollFeedUseCase) fetchAndStore(ctx context.Context, source *feed.Source, log *feed.ConsumptionLog, cursor time.Time, dryRun bool) {
	auth, err := taxii.NewAuthenticator(source)
	if err != nil {
		log.AppendError(err.Error())
		log.MarkFailure()
		return
	}

	timeout := source.Timeout()
	if timeout <= 0 {
		timeout = uc.feedCfg.RequestTimeout
	}
	client := taxii.NewClient(auth, timeout, uc.logger)
	retryer := taxii.NewRetryer(taxii.RetryConfig{
		InitialInterval: uc.feedCfg.RetryInitialInterval,
		MaxInterval:     uc.feedCfg.RetryMaxInterval,
		MaxAttempts:     uc.feedCfg.RetryMaxAttempts,
	}, uc.logger)

	var (
		offset       int
		maxDateAdded time.Time
		objectErrs   int
	)

	for pageNum := 0; pageNum < uc.feedCfg.MaxPages; pageNum++ {
		if err := uc.waitForRateLimit(ctx, source); err != nil {
			log.AppendError(fmt.Sprintf("rate limit wait aborted: %v", err))
			uc.failOrDowngrade(log)
			return
		}

		params := taxii.GetObjectsParams{
			AddedAfter: cursor,
			Limit:      uc.feedCfg.PageLimit,
			Offset:     offset,
		}

		var page *taxii.Page
		err := retryer.Do(ctx, "get objects", func() error {
			p, reqErr := client.GetObjects(ctx, source.APIRoot(), source.CollectionID(), params)
			if reqErr != nil {
				return reqErr
			}
			page = p
			return nil
		})
		if err != nil {
			log.AppendError(err.Error())
			uc.failOrDowngrade(log)
			return
		}

		retrieved := len(page.Envelope.Objects)
		log.AddRetrieved(retrieved)
		metrics.ObjectsRetrieved.Add(float64(retrieved))

		for _, raw := range page.Envelope.Objects {
			if err := uc.processObject(ctx, raw, source, dryRun); err != nil {
				log.AddFailed(1)
				metrics.ObjectsFailed.Inc()
				objectErrs++
				if objectErrs <= maxRecordedObjectErrors {
					log.AppendError(err.Error())
				} else if objectErrs == maxRecordedObjectErrors+1 {
					log.AppendError("further object errors omitted")
				}
				continue
			}
			log.AddProcessed(1)
			metrics.ObjectsProcessed.Inc()
		}

		if page.DateAddedLast.After(maxDateAdded) {
			maxDateAdded = page.DateAddedLast
		}

		if !page.Envelope.More {
			break
		}
		// A zero-object page cannot advance the offset; stop rather than
		// re-request the same window until the page budget runs out.
		if retrieved == 0 {
			break
		}
		if pageNum == uc.feedCfg.MaxPages-1 {
			log.AppendError(fmt.Sprintf("page budget of %d exhausted with more data remaining", uc.feedCfg.MaxPages))
			log.MarkPartial()
			break
		}
		offset += retrieved
	}

	// Advance the cursor only after a poll that did not fail outright, so a
	// failed poll re-fetches the same window next time.
	if !dryRun && log.Status() != vo.StatusFailure && !maxDateAdded.IsZero() {
		if err := uc.cursors.SaveCursor(ctx, source.ID(), maxDateAdded); err != nil {
			uc.logger.Warnw("failed to save poll cursor", "feed_id", source.ID(), "error", err)
		}
	}
}

// processObject validates one raw payload and stores it unless dry-running.
func (uc *PollFeedUseCase) processObject(ctx context.Context, raw map[string]any, source *feed.Source, dryRun bool) error {
	obj, err := uc.factory.NewObject(raw, source.SourceOrgID())
	if err != nil {
		return fmt.Errorf("invalid object %v: %v", raw["id"], err)
	}
	if dryRun {
		return nil
	}
	if err := uc.objectRepo.Upsert(ctx, obj); err != nil {
		return fmt.Errorf("failed to store object %s: %v", obj.ID(), err)
	}
	return nil
}

// failOrDowngrade marks the log failed when nothing was stored yet, partial
// when earlier pages already landed.
func (uc *PollFeedUseCase) failOrDowngrade(log *feed.ConsumptionLog) {
	if log.ObjectsProcessed() == 0 {
		log.MarkFailure()
		return
	}
	log.MarkPartial()
}

// waitForRateLimit blocks until the feed's requests-per-minute window has
// room. Limiter errors fail open: a broken Redis should not stop polls.
func (uc *PollFeedUseCase) waitForRateLimit(ctx context.Context, source *feed.Source) error {
	if source.RateLimit() <= 0 {
		return nil
	}

	key := fmt.Sprintf("feed:%d", source.ID())
	cfg := ratelimit.Config{RequestsPerMinute: source.RateLimit()}

	for {
		allowed, err := uc.limiter.Allow(ctx, key, cfg)
		if err != nil {
			uc.logger.Warnw("rate limiter unavailable, proceeding without limit",
				"feed_id", source.ID(), "error", err)
			return nil
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(rateLimitRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
