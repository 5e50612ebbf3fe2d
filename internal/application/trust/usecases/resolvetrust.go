// Package usecases exposes trust operations to the interface layer.
package usecases

import (
	"context"
	"fmt"

	"stixgate/internal/domain/trust"
	"stixgate/internal/shared/logger"
)

// TrustDecision is the resolved sharing posture for an ordered pair of
// organizations.
type TrustDecision struct {
	SourceOrgID     uint   `json:"source_org_id"`
	RequestingOrgID uint   `json:"requesting_org_id"`
	TrustLevel      string `json:"trust_level,omitempty"`
	Anonymization   string `json:"anonymization"`
	Access          string `json:"access"`
	Basis           string `json:"basis"`
	Allowed         bool   `json:"allowed"`
}

// ResolveTrustUseCase resolves the effective trust between two
// organizations.
type ResolveTrustUseCase struct {
	resolver *trust.Resolver
	logger   logger.Interface
}

// NewResolveTrustUseCase creates a new trust resolution use case.
func NewResolveTrustUseCase(resolver *trust.Resolver, logger logger.Interface) *ResolveTrustUseCase {
	return &ResolveTrustUseCase{
		resolver: resolver,
		logger:   logger,
	}
}

// Execute resolves trust from sourceOrgID toward requestingOrgID.
func (uc *ResolveTrustUseCase) Execute(ctx context.Context, sourceOrgID, requestingOrgID uint) (*TrustDecision, error) {
	decision, err := uc.resolver.Resolve(ctx, sourceOrgID, requestingOrgID)
	if err != nil {
		uc.logger.Errorw("trust resolution failed",
			"source_org_id", sourceOrgID,
			"requesting_org_id", requestingOrgID,
			"error", err)
		return nil, fmt.Errorf("trust resolution failed: %w", err)
	}

	out := &TrustDecision{
		SourceOrgID:     sourceOrgID,
		RequestingOrgID: requestingOrgID,
		Anonymization:   decision.Anonymization.String(),
		Access:          decision.Access.String(),
		Basis:           string(decision.Basis),
		Allowed:         decision.Allowed(),
	}
	if decision.Level != nil {
		out.TrustLevel = decision.Level.Slug()
	}
	return out, nil
}
