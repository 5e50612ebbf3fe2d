package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/infrastructure/persistence/models"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// FeedSourceRepositoryImpl implements the feed.SourceRepository interface
type FeedSourceRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewFeedSourceRepository creates a new feed source repository instance
func NewFeedSourceRepository(db *gorm.DB, logger logger.Interface) feed.SourceRepository {
	return &FeedSourceRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new feed source
func (r *FeedSourceRepositoryImpl) Create(ctx context.Context, source *feed.Source) error {
	model, err := r.toModel(source)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("feed source name already exists")
		}
		r.logger.Errorw("failed to create feed source", "name", source.Name(), "error", err)
		return fmt.Errorf("failed to create feed source: %w", err)
	}

	if err := source.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set feed source ID", "error", err)
		return fmt.Errorf("failed to set feed source ID: %w", err)
	}

	r.logger.Infow("feed source created", "id", model.ID, "name", model.Name)
	return nil
}

// Update persists feed source changes using optimistic locking
func (r *FeedSourceRepositoryImpl) Update(ctx context.Context, source *feed.Source) error {
	model, err := r.toModel(source)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.FeedSourceModel{}).
		Where("id = ? AND version = ?", source.ID(), source.Version()-1).
		Updates(map[string]any{
			"name":            model.Name,
			"discovery_url":   model.DiscoveryURL,
			"api_root":        model.APIRoot,
			"collection_id":   model.CollectionID,
			"poll_interval":   model.PollInterval,
			"auth_type":       model.AuthType,
			"credentials":     model.Credentials,
			"timeout_seconds": model.TimeoutSeconds,
			"rate_limit":      model.RateLimit,
			"is_active":       model.IsActive,
			"last_poll_time":  model.LastPollTime,
			"updated_at":      model.UpdatedAt,
			"version":         model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update feed source", "id", source.ID(), "error", result.Error)
		return fmt.Errorf("failed to update feed source: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConflictError("feed source was modified concurrently")
	}

	return nil
}

// GetByID retrieves a feed source by ID
func (r *FeedSourceRepositoryImpl) GetByID(ctx context.Context, id uint) (*feed.Source, error) {
	var model models.FeedSourceModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("feed source not found")
		}
		r.logger.Errorw("failed to get feed source", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get feed source: %w", err)
	}

	return r.toDomain(&model)
}

// List returns all feed sources
func (r *FeedSourceRepositoryImpl) List(ctx context.Context) ([]*feed.Source, error) {
	var sourceModels []models.FeedSourceModel
	if err := r.db.WithContext(ctx).Order("id").Find(&sourceModels).Error; err != nil {
		r.logger.Errorw("failed to list feed sources", "error", err)
		return nil, fmt.Errorf("failed to list feed sources: %w", err)
	}

	return r.toDomainSlice(sourceModels)
}

// ListActive returns all active feed sources
func (r *FeedSourceRepositoryImpl) ListActive(ctx context.Context) ([]*feed.Source, error) {
	var sourceModels []models.FeedSourceModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&sourceModels).Error; err != nil {
		r.logger.Errorw("failed to list active feed sources", "error", err)
		return nil, fmt.Errorf("failed to list active feed sources: %w", err)
	}

	return r.toDomainSlice(sourceModels)
}

// Delete removes a feed source by ID
func (r *FeedSourceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.FeedSourceModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete feed source", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete feed source: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("feed source not found")
	}

	r.logger.Infow("feed source deleted", "id", id)
	return nil
}

func (r *FeedSourceRepositoryImpl) toModel(source *feed.Source) (*models.FeedSourceModel, error) {
	creds, err := json.Marshal(source.Credentials())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feed credentials: %w", err)
	}

	return &models.FeedSourceModel{
		Name:           source.Name(),
		DiscoveryURL:   source.DiscoveryURL(),
		APIRoot:        source.APIRoot(),
		CollectionID:   source.CollectionID(),
		PollInterval:   source.PollInterval().String(),
		AuthType:       source.AuthType().String(),
		Credentials:    datatypes.JSON(creds),
		TimeoutSeconds: int(source.Timeout() / time.Second),
		RateLimit:      source.RateLimit(),
		SourceOrgID:    source.SourceOrgID(),
		IsActive:       source.IsActive(),
		LastPollTime:   source.LastPollTime(),
		CreatedAt:      source.CreatedAt(),
		UpdatedAt:      source.UpdatedAt(),
		Version:        source.Version(),
	}, nil
}

func (r *FeedSourceRepositoryImpl) toDomain(model *models.FeedSourceModel) (*feed.Source, error) {
	credentials := make(map[string]string)
	if len(model.Credentials) > 0 {
		if err := json.Unmarshal(model.Credentials, &credentials); err != nil {
			r.logger.Errorw("failed to unmarshal feed credentials", "id", model.ID, "error", err)
			return nil, fmt.Errorf("failed to unmarshal feed credentials: %w", err)
		}
	}

	source, err := feed.ReconstructSource(
		model.ID,
		model.Name,
		model.DiscoveryURL,
		model.APIRoot,
		model.CollectionID,
		vo.PollInterval(model.PollInterval),
		vo.AuthType(model.AuthType),
		credentials,
		time.Duration(model.TimeoutSeconds)*time.Second,
		model.RateLimit,
		model.SourceOrgID,
		model.IsActive,
		model.LastPollTime,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct feed source", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct feed source: %w", err)
	}
	return source, nil
}

func (r *FeedSourceRepositoryImpl) toDomainSlice(sourceModels []models.FeedSourceModel) ([]*feed.Source, error) {
	sources := make([]*feed.Source, len(sourceModels))
	for i := range sourceModels {
		source, err := r.toDomain(&sourceModels[i])
		if err != nil {
			return nil, err
		}
		sources[i] = source
	}
	return sources, nil
}
