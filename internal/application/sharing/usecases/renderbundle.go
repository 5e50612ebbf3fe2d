// Package usecases exposes the read-side sharing operation: rendering an
// organization's objects for a requesting peer.
package usecases

import (
	"context"
	"fmt"

	"stixgate/internal/domain/sharing"
	"stixgate/internal/domain/stix"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// RenderedView is an anonymized bundle plus the trust provenance that
// produced it.
type RenderedView struct {
	Bundle   map[string]any `json:"bundle"`
	TierUsed string         `json:"tier_used"`
	Access   string         `json:"access"`
	Basis    string         `json:"basis"`
	Objects  int            `json:"objects"`
}

// RenderBundleUseCase loads a source organization's objects and renders them
// for a requesting organization at the resolved anonymization tier.
type RenderBundleUseCase struct {
	objectRepo stix.Repository
	engine     *sharing.Engine
	logger     logger.Interface
}

// NewRenderBundleUseCase creates a new render use case.
func NewRenderBundleUseCase(
	objectRepo stix.Repository,
	engine *sharing.Engine,
	logger logger.Interface,
) *RenderBundleUseCase {
	return &RenderBundleUseCase{
		objectRepo: objectRepo,
		engine:     engine,
		logger:     logger,
	}
}

// Execute renders up to limit objects (offset for paging) contributed by
// sourceOrgID for consumption by requestingOrgID. Access below read yields a
// forbidden error; the caller learns nothing about the source's holdings.
func (uc *RenderBundleUseCase) Execute(ctx context.Context, sourceOrgID, requestingOrgID uint, limit, offset int) (*RenderedView, error) {
	objects, err := uc.objectRepo.ListBySourceOrg(ctx, sourceOrgID, limit, offset)
	if err != nil {
		uc.logger.Errorw("failed to load objects for rendering",
			"source_org_id", sourceOrgID, "error", err)
		return nil, fmt.Errorf("failed to load objects: %w", err)
	}

	rendered, err := uc.engine.Render(ctx, objects, sourceOrgID, requestingOrgID)
	if err != nil {
		return nil, err
	}

	if !rendered.Access.AllowsRead() {
		return nil, errors.NewForbiddenError("requesting organization has no read access")
	}

	return &RenderedView{
		Bundle:   rendered.Bundle.ToRaw(),
		TierUsed: rendered.TierUsed.String(),
		Access:   rendered.Access.String(),
		Basis:    string(rendered.Basis),
		Objects:  len(rendered.Bundle.Objects),
	}, nil
}
