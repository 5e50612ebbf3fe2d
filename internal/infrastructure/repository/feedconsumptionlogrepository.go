package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/infrastructure/persistence/models"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// FeedConsumptionLogRepositoryImpl implements the feed.LogRepository interface
type FeedConsumptionLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewFeedConsumptionLogRepository creates a new consumption log repository instance
func NewFeedConsumptionLogRepository(db *gorm.DB, logger logger.Interface) feed.LogRepository {
	return &FeedConsumptionLogRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new consumption log
func (r *FeedConsumptionLogRepositoryImpl) Create(ctx context.Context, log *feed.ConsumptionLog) error {
	model := r.toModel(log)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create consumption log", "feed_id", log.FeedID(), "error", err)
		return fmt.Errorf("failed to create consumption log: %w", err)
	}

	if err := log.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set consumption log ID", "error", err)
		return fmt.Errorf("failed to set consumption log ID: %w", err)
	}

	return nil
}

// Update persists consumption log state
func (r *FeedConsumptionLogRepositoryImpl) Update(ctx context.Context, log *feed.ConsumptionLog) error {
	model := r.toModel(log)

	result := r.db.WithContext(ctx).
		Model(&models.FeedConsumptionLogModel{}).
		Where("id = ?", log.ID()).
		Updates(map[string]any{
			"status":            model.Status,
			"objects_retrieved": model.ObjectsRetrieved,
			"objects_processed": model.ObjectsProcessed,
			"objects_failed":    model.ObjectsFailed,
			"error_message":     model.ErrorMessage,
			"completed_at":      model.CompletedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update consumption log", "id", log.ID(), "error", result.Error)
		return fmt.Errorf("failed to update consumption log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("consumption log not found")
	}

	return nil
}

// GetLatestForFeed returns the most recent log for a feed, nil when the feed
// has never been polled
func (r *FeedConsumptionLogRepositoryImpl) GetLatestForFeed(ctx context.Context, feedID uint) (*feed.ConsumptionLog, error) {
	var model models.FeedConsumptionLogModel
	err := r.db.WithContext(ctx).
		Where("feed_id = ?", feedID).
		Order("started_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get latest consumption log", "feed_id", feedID, "error", err)
		return nil, fmt.Errorf("failed to get latest consumption log: %w", err)
	}

	return r.toDomain(&model)
}

// ListForFeed returns recent logs for a feed, newest first
func (r *FeedConsumptionLogRepositoryImpl) ListForFeed(ctx context.Context, feedID uint, limit int) ([]*feed.ConsumptionLog, error) {
	var logModels []models.FeedConsumptionLogModel
	query := r.db.WithContext(ctx).
		Where("feed_id = ?", feedID).
		Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logModels).Error; err != nil {
		r.logger.Errorw("failed to list consumption logs", "feed_id", feedID, "error", err)
		return nil, fmt.Errorf("failed to list consumption logs: %w", err)
	}

	return r.toDomainSlice(logModels)
}

// ListFailedSince returns failed or partial logs started within the window
func (r *FeedConsumptionLogRepositoryImpl) ListFailedSince(ctx context.Context, since time.Time) ([]*feed.ConsumptionLog, error) {
	var logModels []models.FeedConsumptionLogModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND started_at >= ?", []string{vo.StatusFailure.String(), vo.StatusPartial.String()}, since).
		Order("started_at").
		Find(&logModels).Error
	if err != nil {
		r.logger.Errorw("failed to list failed consumption logs", "since", since, "error", err)
		return nil, fmt.Errorf("failed to list failed consumption logs: %w", err)
	}

	return r.toDomainSlice(logModels)
}

// DeleteOlderThan removes logs started before the cutoff and returns the
// number of rows removed
func (r *FeedConsumptionLogRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.FeedConsumptionLogModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete old consumption logs", "cutoff", cutoff, "error", result.Error)
		return 0, fmt.Errorf("failed to delete old consumption logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *FeedConsumptionLogRepositoryImpl) toModel(log *feed.ConsumptionLog) *models.FeedConsumptionLogModel {
	return &models.FeedConsumptionLogModel{
		FeedID:           log.FeedID(),
		Status:           log.Status().String(),
		ObjectsRetrieved: log.ObjectsRetrieved(),
		ObjectsProcessed: log.ObjectsProcessed(),
		ObjectsFailed:    log.ObjectsFailed(),
		ErrorMessage:     log.ErrorMessage(),
		StartedAt:        log.StartedAt(),
		CompletedAt:      log.CompletedAt(),
		CreatedAt:        log.CreatedAt(),
	}
}

func (r *FeedConsumptionLogRepositoryImpl) toDomain(model *models.FeedConsumptionLogModel) (*feed.ConsumptionLog, error) {
	log, err := feed.ReconstructLog(
		model.ID,
		model.FeedID,
		vo.PollStatus(model.Status),
		model.ObjectsRetrieved,
		model.ObjectsProcessed,
		model.ObjectsFailed,
		model.ErrorMessage,
		model.StartedAt,
		model.CompletedAt,
		model.CreatedAt,
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct consumption log", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct consumption log: %w", err)
	}
	return log, nil
}

func (r *FeedConsumptionLogRepositoryImpl) toDomainSlice(logModels []models.FeedConsumptionLogModel) ([]*feed.ConsumptionLog, error) {
	logs := make([]*feed.ConsumptionLog, len(logModels))
	for i := range logModels {
		log, err := r.toDomain(&logModels[i])
		if err != nil {
			return nil, err
		}
		logs[i] = log
	}
	return logs, nil
}
