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

// TrustGroupRepositoryImpl implements the trust.GroupRepository interface
type TrustGroupRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTrustGroupRepository creates a new trust group repository instance
func NewTrustGroupRepository(db *gorm.DB, logger logger.Interface) trust.GroupRepository {
	return &TrustGroupRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a group and its memberships
func (r *TrustGroupRepositoryImpl) Create(ctx context.Context, group *trust.Group) error {
	model := &models.TrustGroupModel{
		Name:         group.Name(),
		Description:  group.Description(),
		TrustLevelID: group.Level().ID(),
		CreatedAt:    group.CreatedAt(),
		UpdatedAt:    group.UpdatedAt(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		for _, m := range group.Members() {
			member := &models.TrustGroupMemberModel{
				GroupID:        model.ID,
				OrganizationID: m.OrgID,
				Active:         m.Active,
				JoinedAt:       m.JoinedAt,
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("trust group already exists")
		}
		r.logger.Errorw("failed to create trust group", "name", group.Name(), "error", err)
		return fmt.Errorf("failed to create trust group: %w", err)
	}

	if err := group.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set trust group ID", "error", err)
		return fmt.Errorf("failed to set trust group ID: %w", err)
	}

	r.logger.Infow("trust group created", "id", model.ID, "name", model.Name)
	return nil
}

// Update persists group metadata and reconciles memberships
func (r *TrustGroupRepositoryImpl) Update(ctx context.Context, group *trust.Group) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TrustGroupModel{}).
			Where("id = ?", group.ID()).
			Updates(map[string]any{
				"name":           group.Name(),
				"description":    group.Description(),
				"trust_level_id": group.Level().ID(),
				"updated_at":     group.UpdatedAt(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFoundError("trust group not found")
		}

		// Replace memberships wholesale; the aggregate is the source of truth.
		if err := tx.Where("group_id = ?", group.ID()).
			Delete(&models.TrustGroupMemberModel{}).Error; err != nil {
			return err
		}
		for _, m := range group.Members() {
			member := &models.TrustGroupMemberModel{
				GroupID:        group.ID(),
				OrganizationID: m.OrgID,
				Active:         m.Active,
				JoinedAt:       m.JoinedAt,
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFoundError(err) {
			return err
		}
		r.logger.Errorw("failed to update trust group", "id", group.ID(), "error", err)
		return fmt.Errorf("failed to update trust group: %w", err)
	}

	return nil
}

// GetByID retrieves a group with its memberships and default level
func (r *TrustGroupRepositoryImpl) GetByID(ctx context.Context, id uint) (*trust.Group, error) {
	var model models.TrustGroupModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trust group not found")
		}
		r.logger.Errorw("failed to get trust group", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get trust group: %w", err)
	}

	return r.toDomain(ctx, &model)
}

// GetSharedGroups returns groups where both organizations are active members
func (r *TrustGroupRepositoryImpl) GetSharedGroups(ctx context.Context, orgA, orgB uint) ([]*trust.Group, error) {
	var groupIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.TrustGroupMemberModel{}).
		Where("organization_id IN ? AND active = ?", []uint{orgA, orgB}, true).
		Group("group_id").
		Having("COUNT(DISTINCT organization_id) = 2").
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		r.logger.Errorw("failed to query shared trust groups",
			"org_a", orgA,
			"org_b", orgB,
			"error", err)
		return nil, fmt.Errorf("failed to query shared trust groups: %w", err)
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}

	var groupModels []models.TrustGroupModel
	if err := r.db.WithContext(ctx).Where("id IN ?", groupIDs).Find(&groupModels).Error; err != nil {
		r.logger.Errorw("failed to load shared trust groups", "error", err)
		return nil, fmt.Errorf("failed to load shared trust groups: %w", err)
	}

	groups := make([]*trust.Group, len(groupModels))
	for i := range groupModels {
		group, err := r.toDomain(ctx, &groupModels[i])
		if err != nil {
			return nil, err
		}
		groups[i] = group
	}
	return groups, nil
}

func (r *TrustGroupRepositoryImpl) toDomain(ctx context.Context, model *models.TrustGroupModel) (*trust.Group, error) {
	var levelModel models.TrustLevelModel
	if err := r.db.WithContext(ctx).First(&levelModel, model.TrustLevelID).Error; err != nil {
		r.logger.Errorw("failed to load trust level for group",
			"group_id", model.ID,
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

	var memberModels []models.TrustGroupMemberModel
	if err := r.db.WithContext(ctx).Where("group_id = ?", model.ID).Find(&memberModels).Error; err != nil {
		r.logger.Errorw("failed to load trust group members", "group_id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to load trust group members: %w", err)
	}

	members := make([]*trust.Membership, len(memberModels))
	for i, m := range memberModels {
		members[i] = &trust.Membership{
			OrgID:    m.OrganizationID,
			Active:   m.Active,
			JoinedAt: m.JoinedAt,
		}
	}

	group, err := trust.ReconstructGroup(model.ID, model.Name, model.Description, level, members, model.CreatedAt, model.UpdatedAt)
	if err != nil {
		r.logger.Errorw("failed to reconstruct trust group", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct trust group: %w", err)
	}
	return group, nil
}
