package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stixgate/internal/domain/stix"
	"stixgate/internal/infrastructure/persistence/models"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// StixObjectRepositoryImpl implements the stix.Repository interface
type StixObjectRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewStixObjectRepository creates a new STIX object repository instance
func NewStixObjectRepository(db *gorm.DB, logger logger.Interface) stix.Repository {
	return &StixObjectRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Upsert stores an object. An existing row with the same stix_id is only
// replaced when the incoming modified timestamp is newer.
func (r *StixObjectRepositoryImpl) Upsert(ctx context.Context, obj *stix.Object) error {
	raw, err := json.Marshal(obj.Raw())
	if err != nil {
		return fmt.Errorf("failed to marshal STIX payload: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StixObjectModel
		findErr := tx.Where("stix_id = ?", obj.ID()).First(&existing).Error
		if findErr == gorm.ErrRecordNotFound {
			model := &models.StixObjectModel{
				StixID:      obj.ID(),
				StixType:    obj.Type(),
				SpecVersion: obj.SpecVersion(),
				Created:     obj.Created(),
				Modified:    obj.Modified(),
				Raw:         datatypes.JSON(raw),
				SourceOrgID: obj.SourceOrgID(),
			}
			return tx.Create(model).Error
		}
		if findErr != nil {
			return findErr
		}

		if !obj.Modified().After(existing.Modified) {
			return nil
		}

		return tx.Model(&models.StixObjectModel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"spec_version": obj.SpecVersion(),
				"created":      obj.Created(),
				"modified":     obj.Modified(),
				"raw":          datatypes.JSON(raw),
			}).Error
	})
	if err != nil {
		if errors.IsDuplicateError(err) {
			// Concurrent insert of the same stix_id; the other writer won.
			return nil
		}
		r.logger.Errorw("failed to upsert STIX object", "stix_id", obj.ID(), "error", err)
		return fmt.Errorf("failed to upsert STIX object: %w", err)
	}

	return nil
}

// GetByStixID retrieves an object by its STIX identifier
func (r *StixObjectRepositoryImpl) GetByStixID(ctx context.Context, stixID string) (*stix.Object, error) {
	var model models.StixObjectModel
	if err := r.db.WithContext(ctx).Where("stix_id = ?", stixID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("STIX object not found")
		}
		r.logger.Errorw("failed to get STIX object", "stix_id", stixID, "error", err)
		return nil, fmt.Errorf("failed to get STIX object: %w", err)
	}

	return r.toDomain(&model)
}

// ListBySourceOrg returns a page of objects contributed by an organization,
// ordered by modified time then ID for a stable pagination order
func (r *StixObjectRepositoryImpl) ListBySourceOrg(ctx context.Context, sourceOrgID uint, limit, offset int) ([]*stix.Object, error) {
	var objectModels []models.StixObjectModel
	query := r.db.WithContext(ctx).
		Where("source_org_id = ?", sourceOrgID).
		Order("modified, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&objectModels).Error; err != nil {
		r.logger.Errorw("failed to list STIX objects", "source_org_id", sourceOrgID, "error", err)
		return nil, fmt.Errorf("failed to list STIX objects: %w", err)
	}

	objects := make([]*stix.Object, len(objectModels))
	for i := range objectModels {
		obj, err := r.toDomain(&objectModels[i])
		if err != nil {
			return nil, err
		}
		objects[i] = obj
	}
	return objects, nil
}

// CountBySourceOrg returns how many objects an organization has contributed
func (r *StixObjectRepositoryImpl) CountBySourceOrg(ctx context.Context, sourceOrgID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StixObjectModel{}).
		Where("source_org_id = ?", sourceOrgID).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count STIX objects", "source_org_id", sourceOrgID, "error", err)
		return 0, fmt.Errorf("failed to count STIX objects: %w", err)
	}

	return count, nil
}

func (r *StixObjectRepositoryImpl) toDomain(model *models.StixObjectModel) (*stix.Object, error) {
	var raw map[string]any
	if err := json.Unmarshal(model.Raw, &raw); err != nil {
		r.logger.Errorw("failed to unmarshal STIX payload", "stix_id", model.StixID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal STIX payload: %w", err)
	}

	obj, err := stix.ReconstructObject(
		model.StixID,
		model.StixType,
		model.SpecVersion,
		model.Created,
		model.Modified,
		raw,
		model.SourceOrgID,
		false,
		"",
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct STIX object", "stix_id", model.StixID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct STIX object: %w", err)
	}
	return obj, nil
}
