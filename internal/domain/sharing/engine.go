package sharing

import (
	"context"
	"errors"
	"fmt"

	"stixgate/internal/domain/organization"
	"stixgate/internal/domain/stix"
	"stixgate/internal/domain/trust"
	vo "stixgate/internal/domain/trust/valueobjects"
	"stixgate/internal/shared/logger"
)

// RenderedBundle is an anonymized view of a set of STIX objects plus the
// provenance of the decision that produced it.
type RenderedBundle struct {
	Bundle   *stix.Bundle
	TierUsed vo.AnonymizationLevel
	Access   vo.AccessLevel
	Basis    trust.Basis
}

// Engine renders STIX objects for a requesting organization. It resolves
// trust once per render and applies the resulting tier to every object.
// Rendering is read-only: stored originals are never modified.
type Engine struct {
	resolver *trust.Resolver
	registry *Registry
	orgRepo  organization.Repository
	logger   logger.Interface
}

// NewEngine creates an anonymization engine.
func NewEngine(resolver *trust.Resolver, registry *Registry, orgRepo organization.Repository, log logger.Interface) *Engine {
	return &Engine{
		resolver: resolver,
		registry: registry,
		orgRepo:  orgRepo,
		logger:   log,
	}
}

// Render anonymizes objects originating from sourceOrgID for consumption by
// requestingOrgID. A malformed object never aborts the bundle: it falls
// back to full anonymization with a warning. Only organization lookup
// failures are true errors.
func (e *Engine) Render(ctx context.Context, objects []*stix.Object, sourceOrgID, requestingOrgID uint) (*RenderedBundle, error) {
	decision, err := e.resolver.Resolve(ctx, sourceOrgID, requestingOrgID)
	if err != nil {
		return nil, fmt.Errorf("trust resolution: %w", err)
	}

	strategy := e.registry.ForLevel(decision.Anonymization)
	opts := e.redactionOptions(ctx, sourceOrgID)

	rendered := make([]*stix.Object, 0, len(objects))
	for _, obj := range objects {
		out, err := strategy.Apply(obj, opts)
		if err != nil {
			var parseErr *stix.PatternParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("anonymize %s: %w", obj.ID(), err)
			}
			e.logger.Warnw("pattern unparseable, falling back to full anonymization",
				"stix_id", obj.ID(),
				"tier", strategy.Name(),
				"reason", parseErr.Reason,
			)
			out, err = e.registry.Fallback().Apply(obj, opts)
			if err != nil {
				return nil, fmt.Errorf("fallback anonymize %s: %w", obj.ID(), err)
			}
		}
		rendered = append(rendered, out)
	}

	e.logger.Debugw("bundle rendered",
		"source_org_id", sourceOrgID,
		"requesting_org_id", requestingOrgID,
		"tier", decision.Anonymization.String(),
		"basis", string(decision.Basis),
		"objects", len(rendered),
	)

	return &RenderedBundle{
		Bundle:   stix.NewBundle(rendered),
		TierUsed: decision.Anonymization,
		Access:   decision.Access,
		Basis:    decision.Basis,
	}, nil
}

// redactionOptions collects the source organization's name for free-text
// redaction. Lookup failures degrade to no redaction names rather than
// failing the render; the tiers still strip attribution fields.
func (e *Engine) redactionOptions(ctx context.Context, sourceOrgID uint) Options {
	org, err := e.orgRepo.GetByID(ctx, sourceOrgID)
	if err != nil || org == nil {
		return Options{}
	}
	return Options{OrgNames: []string{org.Name(), org.Domain()}}
}
