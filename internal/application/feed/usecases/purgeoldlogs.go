package usecases

import (
	"context"
	"fmt"
	"time"

	"stixgate/internal/domain/feed"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/logger"
)

// PurgeOldLogsUseCase removes consumption logs older than the retention
// window.
type PurgeOldLogsUseCase struct {
	logRepo feed.LogRepository
	logger  logger.Interface
}

// NewPurgeOldLogsUseCase creates a new log retention use case.
func NewPurgeOldLogsUseCase(logRepo feed.LogRepository, logger logger.Interface) *PurgeOldLogsUseCase {
	return &PurgeOldLogsUseCase{
		logRepo: logRepo,
		logger:  logger,
	}
}

// Execute deletes logs older than retentionDays and returns how many rows
// were removed.
func (uc *PurgeOldLogsUseCase) Execute(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := biztime.NowUTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	removed, err := uc.logRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		uc.logger.Errorw("failed to purge old consumption logs", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to purge old consumption logs: %w", err)
	}

	if removed > 0 {
		uc.logger.Infow("purged old consumption logs", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}
