package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stixgate/internal/domain/trust"
	vo "stixgate/internal/domain/trust/valueobjects"
	"stixgate/internal/infrastructure/persistence/models"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// TrustLevelRepositoryImpl implements the trust.LevelRepository interface
type TrustLevelRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTrustLevelRepository creates a new trust level repository instance
func NewTrustLevelRepository(db *gorm.DB, logger logger.Interface) trust.LevelRepository {
	return &TrustLevelRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new trust level
func (r *TrustLevelRepositoryImpl) Create(ctx context.Context, level *trust.Level) error {
	model := &models.TrustLevelModel{
		Name:                 level.Name(),
		Slug:                 level.Slug(),
		NumericalValue:       level.NumericalValue(),
		DefaultAnonymization: level.DefaultAnonymization().String(),
		DefaultAccess:        level.DefaultAccess().String(),
		IsSystemDefault:      level.IsSystemDefault(),
		CreatedAt:            level.CreatedAt(),
		UpdatedAt:            level.UpdatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("trust level slug already exists")
		}
		r.logger.Errorw("failed to create trust level", "slug", level.Slug(), "error", err)
		return fmt.Errorf("failed to create trust level: %w", err)
	}

	if err := level.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set trust level ID", "error", err)
		return fmt.Errorf("failed to set trust level ID: %w", err)
	}

	r.logger.Infow("trust level created", "id", model.ID, "slug", model.Slug)
	return nil
}

// GetByID retrieves a trust level by ID
func (r *TrustLevelRepositoryImpl) GetByID(ctx context.Context, id uint) (*trust.Level, error) {
	var model models.TrustLevelModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trust level not found")
		}
		r.logger.Errorw("failed to get trust level", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get trust level: %w", err)
	}

	return r.toDomain(&model)
}

// GetBySlug retrieves a trust level by slug
func (r *TrustLevelRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*trust.Level, error) {
	var model models.TrustLevelModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trust level not found")
		}
		r.logger.Errorw("failed to get trust level by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get trust level: %w", err)
	}

	return r.toDomain(&model)
}

// GetSystemDefault returns the level flagged as system default, nil when none
func (r *TrustLevelRepositoryImpl) GetSystemDefault(ctx context.Context) (*trust.Level, error) {
	var model models.TrustLevelModel
	if err := r.db.WithContext(ctx).Where("is_system_default = ?", true).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get system default trust level", "error", err)
		return nil, fmt.Errorf("failed to get system default trust level: %w", err)
	}

	return r.toDomain(&model)
}

// SetSystemDefault atomically moves the default flag to the given level
func (r *TrustLevelRepositoryImpl) SetSystemDefault(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TrustLevelModel{}).
			Where("is_system_default = ?", true).
			Update("is_system_default", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.TrustLevelModel{}).
			Where("id = ?", id).
			Update("is_system_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFoundError("trust level not found")
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFoundError(err) {
			return err
		}
		r.logger.Errorw("failed to set system default trust level", "id", id, "error", err)
		return fmt.Errorf("failed to set system default trust level: %w", err)
	}

	r.logger.Infow("system default trust level updated", "id", id)
	return nil
}

// List returns all trust levels ordered by numerical value
func (r *TrustLevelRepositoryImpl) List(ctx context.Context) ([]*trust.Level, error) {
	var levelModels []models.TrustLevelModel
	if err := r.db.WithContext(ctx).Order("numerical_value DESC, id").Find(&levelModels).Error; err != nil {
		r.logger.Errorw("failed to list trust levels", "error", err)
		return nil, fmt.Errorf("failed to list trust levels: %w", err)
	}

	levels := make([]*trust.Level, len(levelModels))
	for i := range levelModels {
		level, err := r.toDomain(&levelModels[i])
		if err != nil {
			return nil, err
		}
		levels[i] = level
	}
	return levels, nil
}

func (r *TrustLevelRepositoryImpl) toDomain(model *models.TrustLevelModel) (*trust.Level, error) {
	level, err := trust.ReconstructLevel(
		model.ID,
		model.Name,
		model.Slug,
		model.NumericalValue,
		vo.AnonymizationLevel(model.DefaultAnonymization),
		vo.AccessLevel(model.DefaultAccess),
		model.IsSystemDefault,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct trust level", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct trust level: %w", err)
	}
	return level, nil
}
