package usecases

import (
	"context"
	"fmt"
	"sync"

	"stixgate/internal/domain/feed"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/goroutine"
	"stixgate/internal/shared/logger"
)

// SyncReport aggregates the outcome of one sweep across feeds.
type SyncReport struct {
	Due     int
	Polled  int
	Skipped int
	Failed  int
	Results []*PollResult
}

// SyncAllFeedsUseCase polls every due feed with bounded concurrency. One
// feed's failure never stops the others.
type SyncAllFeedsUseCase struct {
	sourceRepo  feed.SourceRepository
	pollFeed    *PollFeedUseCase
	concurrency int
	logger      logger.Interface
}

// NewSyncAllFeedsUseCase creates a new sweep use case.
func NewSyncAllFeedsUseCase(
	sourceRepo feed.SourceRepository,
	pollFeed *PollFeedUseCase,
	concurrency int,
	logger logger.Interface,
) *SyncAllFeedsUseCase {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &SyncAllFeedsUseCase{
		sourceRepo:  sourceRepo,
		pollFeed:    pollFeed,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Execute polls all due feeds. With onlyDue false, every active feed is
// polled regardless of schedule (the manual sync path).
func (uc *SyncAllFeedsUseCase) Execute(ctx context.Context, onlyDue bool) (*SyncReport, error) {
	sources, err := uc.sourceRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list active feeds", "error", err)
		return nil, fmt.Errorf("failed to list active feeds: %w", err)
	}

	now := biztime.NowUTC()
	var due []*feed.Source
	for _, source := range sources {
		if !onlyDue || source.IsDue(now) {
			due = append(due, source)
		}
	}

	report := &SyncReport{Due: len(due)}
	if len(due) == 0 {
		return report, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, uc.concurrency)
	)

	for _, source := range due {
		source := source
		wg.Add(1)
		sem <- struct{}{}
		goroutine.SafeGo(uc.logger, fmt.Sprintf("poll feed %d", source.ID()), func() {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := uc.pollFeed.Execute(ctx, source.ID(), false)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				uc.logger.Errorw("feed poll failed", "feed_id", source.ID(), "error", err)
				return
			}
			report.Results = append(report.Results, result)
			if result.Skipped {
				report.Skipped++
				return
			}
			report.Polled++
		})
	}

	wg.Wait()

	uc.logger.Infow("feed sweep finished",
		"due", report.Due,
		"polled", report.Polled,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
