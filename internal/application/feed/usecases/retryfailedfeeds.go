package usecases

import (
	"context"
	"fmt"
	"time"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/logger"
)

// RetryFailedFeedsUseCase re-polls feeds whose most recent poll within the
// lookback window failed or was partial.
type RetryFailedFeedsUseCase struct {
	sourceRepo feed.SourceRepository
	logRepo    feed.LogRepository
	pollFeed   *PollFeedUseCase
	logger     logger.Interface
}

// NewRetryFailedFeedsUseCase creates a new retry sweep use case.
func NewRetryFailedFeedsUseCase(
	sourceRepo feed.SourceRepository,
	logRepo feed.LogRepository,
	pollFeed *PollFeedUseCase,
	logger logger.Interface,
) *RetryFailedFeedsUseCase {
	return &RetryFailedFeedsUseCase{
		sourceRepo: sourceRepo,
		logRepo:    logRepo,
		pollFeed:   pollFeed,
		logger:     logger,
	}
}

// Execute re-polls candidates sequentially; the per-feed lock already guards
// against overlap with the regular sweep.
func (uc *RetryFailedFeedsUseCase) Execute(ctx context.Context, lookback time.Duration) (*SyncReport, error) {
	since := biztime.NowUTC().Add(-lookback)
	failedLogs, err := uc.logRepo.ListFailedSince(ctx, since)
	if err != nil {
		uc.logger.Errorw("failed to list failed polls", "error", err)
		return nil, fmt.Errorf("failed to list failed polls: %w", err)
	}

	// A feed may have failed several times in the window; retry it once.
	candidates := make(map[uint]struct{})
	for _, log := range failedLogs {
		candidates[log.FeedID()] = struct{}{}
	}

	report := &SyncReport{Due: len(candidates)}
	for feedID := range candidates {
		// Only retry when the failure is still the latest outcome.
		latest, err := uc.logRepo.GetLatestForFeed(ctx, feedID)
		if err != nil {
			report.Failed++
			uc.logger.Errorw("failed to check latest poll", "feed_id", feedID, "error", err)
			continue
		}
		if latest == nil || latest.Status() == vo.StatusSuccess {
			continue
		}

		result, err := uc.pollFeed.Execute(ctx, feedID, false)
		if err != nil {
			report.Failed++
			uc.logger.Errorw("retry poll failed", "feed_id", feedID, "error", err)
			continue
		}
		report.Results = append(report.Results, result)
		if result.Skipped {
			report.Skipped++
			continue
		}
		report.Polled++
	}

	uc.logger.Infow("retry sweep finished",
		"candidates", report.Due,
		"polled", report.Polled,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
