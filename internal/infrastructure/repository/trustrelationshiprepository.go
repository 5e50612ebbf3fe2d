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

// TrustRelationshipRepositoryImpl implements the trust.RelationshipRepository interface
type TrustRelationshipRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTrustRelationshipRepository creates a new trust relationship repository instance
func NewTrustRelationshipRepository(db *gorm.DB, logger logger.Interface) trust.RelationshipRepository {
	return &TrustRelationshipRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new trust relationship
func (r *TrustRelationshipRepositoryImpl) Create(ctx context.Context, rel *trust.Relationship) error {
	model := r.toModel(rel)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("trust relationship already exists for this pair")
		}
		r.logger.Errorw("failed to create trust relationship",
			"source_org_id", rel.SourceOrgID(),
			"target_org_id", rel.TargetOrgID(),
			"error", err)
		return fmt.Errorf("failed to create trust relationship: %w", err)
	}

	if err := rel.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set trust relationship ID", "error", err)
		return fmt.Errorf("failed to set trust relationship ID: %w", err)
	}

	r.logger.Infow("trust relationship created",
		"id", model.ID,
		"source_org_id", model.SourceOrgID,
		"target_org_id", model.TargetOrgID)
	return nil
}

// Update persists relationship state changes using optimistic locking
func (r *TrustRelationshipRepositoryImpl) Update(ctx context.Context, rel *trust.Relationship) error {
	model := r.toModel(rel)
	model.ID = rel.ID()

	result := r.db.WithContext(ctx).
		Model(&models.TrustRelationshipModel{}).
		Where("id = ? AND version = ?", rel.ID(), rel.Version()-1).
		Updates(map[string]any{
			"trust_level_id":         model.TrustLevelID,
			"status":                 model.Status,
			"anonymization_override": model.AnonymizationOverride,
			"access_override":        model.AccessOverride,
			"source_approved":        model.SourceApproved,
			"target_approved":        model.TargetApproved,
			"valid_from":             model.ValidFrom,
			"valid_until":            model.ValidUntil,
			"revoked_at":             model.RevokedAt,
			"revoked_by":             model.RevokedBy,
			"revoke_reason":          model.RevokeReason,
			"updated_at":             model.UpdatedAt,
			"version":                model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update trust relationship", "id", rel.ID(), "error", result.Error)
		return fmt.Errorf("failed to update trust relationship: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConflictError("trust relationship was modified concurrently")
	}

	return nil
}

// GetByID retrieves a trust relationship by ID
func (r *TrustRelationshipRepositoryImpl) GetByID(ctx context.Context, id uint) (*trust.Relationship, error) {
	var model models.TrustRelationshipModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trust relationship not found")
		}
		r.logger.Errorw("failed to get trust relationship", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get trust relationship: %w", err)
	}

	return r.toDomain(ctx, &model)
}

// GetActiveForPair returns the active relationship for the ordered pair, nil
// when none exists
func (r *TrustRelationshipRepositoryImpl) GetActiveForPair(ctx context.Context, sourceOrgID, targetOrgID uint) (*trust.Relationship, error) {
	var model models.TrustRelationshipModel
	err := r.db.WithContext(ctx).
		Where("source_org_id = ? AND target_org_id = ? AND status = ?", sourceOrgID, targetOrgID, vo.StatusActive.String()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get active trust relationship",
			"source_org_id", sourceOrgID,
			"target_org_id", targetOrgID,
			"error", err)
		return nil, fmt.Errorf("failed to get active trust relationship: %w", err)
	}

	return r.toDomain(ctx, &model)
}

// ListBySourceOrg returns all relationships originating from an organization
func (r *TrustRelationshipRepositoryImpl) ListBySourceOrg(ctx context.Context, sourceOrgID uint) ([]*trust.Relationship, error) {
	var relModels []models.TrustRelationshipModel
	if err := r.db.WithContext(ctx).
		Where("source_org_id = ?", sourceOrgID).
		Order("id").
		Find(&relModels).Error; err != nil {
		r.logger.Errorw("failed to list trust relationships", "source_org_id", sourceOrgID, "error", err)
		return nil, fmt.Errorf("failed to list trust relationships: %w", err)
	}

	rels := make([]*trust.Relationship, len(relModels))
	for i := range relModels {
		rel, err := r.toDomain(ctx, &relModels[i])
		if err != nil {
			return nil, err
		}
		rels[i] = rel
	}
	return rels, nil
}

func (r *TrustRelationshipRepositoryImpl) toModel(rel *trust.Relationship) *models.TrustRelationshipModel {
	var anonOverride, accessOverride *string
	if v := rel.AnonymizationOverride(); v != nil {
		s := v.String()
		anonOverride = &s
	}
	if v := rel.AccessOverride(); v != nil {
		s := v.String()
		accessOverride = &s
	}

	return &models.TrustRelationshipModel{
		SourceOrgID:           rel.SourceOrgID(),
		TargetOrgID:           rel.TargetOrgID(),
		TrustLevelID:          rel.Level().ID(),
		Status:                rel.Status().String(),
		AnonymizationOverride: anonOverride,
		AccessOverride:        accessOverride,
		SourceApproved:        rel.SourceApproved(),
		TargetApproved:        rel.TargetApproved(),
		ValidFrom:             rel.ValidFrom(),
		ValidUntil:            rel.ValidUntil(),
		RevokedAt:             rel.RevokedAt(),
		RevokedBy:             rel.RevokedBy(),
		RevokeReason:          rel.RevokeReason(),
		CreatedAt:             rel.CreatedAt(),
		UpdatedAt:             rel.UpdatedAt(),
		Version:               rel.Version(),
	}
}

func (r *TrustRelationshipRepositoryImpl) toDomain(ctx context.Context, model *models.TrustRelationshipModel) (*trust.Relationship, error) {
	var levelModel models.TrustLevelModel
	if err := r.db.WithContext(ctx).First(&levelModel, model.TrustLevelID).Error; err != nil {
		r.logger.Errorw("failed to load trust level for relationship",
			"relationship_id", model.ID,
			"trust_level_id", model.TrustLevelID,
			"error", err)
		return nil, fmt.Errorf("failed to load trust level: %w", err)
	}

	level, err := trust.ReconstructLevel(
		levelModel.ID,
		levelModel.Name,
		levelModel.Slug,
		levelModel.NumericalValue,
		vo.AnonymizationLevel(levelModel.DefaultAnonymization),
		vo.AccessLevel(levelModel.DefaultAccess),
		levelModel.IsSystemDefault,
		levelModel.CreatedAt,
		levelModel.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct trust level: %w", err)
	}

	var anonOverride *vo.AnonymizationLevel
	if model.AnonymizationOverride != nil {
		v := vo.AnonymizationLevel(*model.AnonymizationOverride)
		anonOverride = &v
	}
	var accessOverride *vo.AccessLevel
	if model.AccessOverride != nil {
		v := vo.AccessLevel(*model.AccessOverride)
		accessOverride = &v
	}

	rel, err := trust.ReconstructRelationship(
		model.ID,
		model.SourceOrgID,
		model.TargetOrgID,
		level,
		vo.RelationshipStatus(model.Status),
		anonOverride,
		accessOverride,
		model.SourceApproved,
		model.TargetApproved,
		model.ValidFrom,
		model.ValidUntil,
		model.RevokedAt,
		model.RevokedBy,
		model.RevokeReason,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		r.logger.Errorw("failed to reconstruct trust relationship", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct trust relationship: %w", err)
	}
	return rel, nil
}
