package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stixgate/internal/domain/organization"
	"stixgate/internal/infrastructure/persistence/models"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// OrganizationRepositoryImpl implements the organization.Repository interface
type OrganizationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB, logger logger.Interface) organization.Repository {
	return &OrganizationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new organization
func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *organization.Organization) error {
	model := &models.OrganizationModel{
		Name:      org.Name(),
		Domain:    org.Domain(),
		CreatedAt: org.CreatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("organization already exists")
		}
		r.logger.Errorw("failed to create organization", "name", org.Name(), "error", err)
		return fmt.Errorf("failed to create organization: %w", err)
	}

	if err := org.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set organization ID", "error", err)
		return fmt.Errorf("failed to set organization ID: %w", err)
	}

	r.logger.Infow("organization created", "id", model.ID, "name", model.Name)
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id uint) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("organization not found")
		}
		r.logger.Errorw("failed to get organization", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return r.toDomain(&model)
}

// GetByDomain retrieves an organization by its domain
func (r *OrganizationRepositoryImpl) GetByDomain(ctx context.Context, domain string) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("organization not found")
		}
		r.logger.Errorw("failed to get organization by domain", "domain", domain, "error", err)
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return r.toDomain(&model)
}

// List returns all organizations
func (r *OrganizationRepositoryImpl) List(ctx context.Context) ([]*organization.Organization, error) {
	var orgModels []models.OrganizationModel
	if err := r.db.WithContext(ctx).Order("id").Find(&orgModels).Error; err != nil {
		r.logger.Errorw("failed to list organizations", "error", err)
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	orgs := make([]*organization.Organization, len(orgModels))
	for i := range orgModels {
		org, err := r.toDomain(&orgModels[i])
		if err != nil {
			return nil, err
		}
		orgs[i] = org
	}
	return orgs, nil
}

func (r *OrganizationRepositoryImpl) toDomain(model *models.OrganizationModel) (*organization.Organization, error) {
	org, err := organization.ReconstructOrganization(model.ID, model.Name, model.Domain, model.CreatedAt)
	if err != nil {
		r.logger.Errorw("failed to reconstruct organization", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to reconstruct organization: %w", err)
	}
	return org, nil
}
