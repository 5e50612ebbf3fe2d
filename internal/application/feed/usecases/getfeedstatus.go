package usecases

import (
	"context"
	"fmt"
	"time"

	"stixgate/internal/domain/feed"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/logger"
)

// FeedStatus is one feed's scheduling state plus its latest poll outcome.
type FeedStatus struct {
	FeedID       uint       `json:"feed_id"`
	Name         string     `json:"name"`
	Active       bool       `json:"active"`
	PollInterval string     `json:"poll_interval"`
	LastPollTime *time.Time `json:"last_poll_time,omitempty"`
	Due          bool       `json:"due"`

	LastStatus       string     `json:"last_status,omitempty"`
	ObjectsRetrieved int        `json:"objects_retrieved"`
	ObjectsProcessed int        `json:"objects_processed"`
	ObjectsFailed    int        `json:"objects_failed"`
	LastError        string     `json:"last_error,omitempty"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
}

// GetFeedStatusUseCase reports the state of all feeds, or one feed by ID.
type GetFeedStatusUseCase struct {
	sourceRepo feed.SourceRepository
	logRepo    feed.LogRepository
	logger     logger.Interface
}

// NewGetFeedStatusUseCase creates a new status use case.
func NewGetFeedStatusUseCase(
	sourceRepo feed.SourceRepository,
	logRepo feed.LogRepository,
	logger logger.Interface,
) *GetFeedStatusUseCase {
	return &GetFeedStatusUseCase{
		sourceRepo: sourceRepo,
		logRepo:    logRepo,
		logger:     logger,
	}
}

// Execute returns statuses for every feed; feedID nonzero narrows to one.
func (uc *GetFeedStatusUseCase) Execute(ctx context.Context, feedID uint) ([]*FeedStatus, error) {
	var (
		sources []*feed.Source
		err     error
	)
	if feedID != 0 {
		source, getErr := uc.sourceRepo.GetByID(ctx, feedID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load feed source: %w", getErr)
		}
		sources = []*feed.Source{source}
	} else {
		sources, err = uc.sourceRepo.List(ctx)
		if err != nil {
			uc.logger.Errorw("failed to list feeds", "error", err)
			return nil, fmt.Errorf("failed to list feeds: %w", err)
		}
	}

	now := biztime.NowUTC()
	statuses := make([]*FeedStatus, 0, len(sources))
	for _, source := range sources {
		status := &FeedStatus{
			FeedID:       source.ID(),
			Name:         source.Name(),
			Active:       source.IsActive(),
			PollInterval: source.PollInterval().String(),
			LastPollTime: source.LastPollTime(),
			Due:          source.IsDue(now),
		}

		latest, err := uc.logRepo.GetLatestForFeed(ctx, source.ID())
		if err != nil {
			uc.logger.Warnw("failed to load latest poll log", "feed_id", source.ID(), "error", err)
		} else if latest != nil {
			status.LastStatus = latest.Status().String()
			status.ObjectsRetrieved = latest.ObjectsRetrieved()
			status.ObjectsProcessed = latest.ObjectsProcessed()
			status.ObjectsFailed = latest.ObjectsFailed()
			status.LastError = latest.ErrorMessage()
			status.LastCompletedAt = latest.CompletedAt()
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}
