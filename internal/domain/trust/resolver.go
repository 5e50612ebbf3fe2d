package trust

import (
	"context"
	"fmt"
	"sort"

	"stixgate/internal/domain/organization"
	vo "stixgate/internal/domain/trust/valueobjects"
	"stixgate/internal/shared/biztime"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

// Basis identifies which rule produced a trust decision.
type Basis string

const (
	BasisSelf         Basis = "self"
	BasisRelationship Basis = "relationship"
	BasisGroup        Basis = "group"
	BasisNone         Basis = "none"
)

// Decision is the resolved trust outcome for an ordered organization pair.
type Decision struct {
	Level         *Level
	Anonymization vo.AnonymizationLevel
	Access        vo.AccessLevel
	Basis         Basis
}

// Allowed reports whether the decision grants any read access.
func (d Decision) Allowed() bool {
	return d.Access.AllowsRead()
}

// Resolver computes the effective trust between two organizations. Lookup
// priority: self, then active direct relationship, then best shared group,
// then a fail-closed default (full anonymization, no access).
type Resolver struct {
	orgRepo   organization.Repository
	relRepo   RelationshipRepository
	groupRepo GroupRepository
	logger    logger.Interface
}

// NewResolver creates a trust resolver.
func NewResolver(
	orgRepo organization.Repository,
	relRepo RelationshipRepository,
	groupRepo GroupRepository,
	log logger.Interface,
) *Resolver {
	return &Resolver{
		orgRepo:   orgRepo,
		relRepo:   relRepo,
		groupRepo: groupRepo,
		logger:    log,
	}
}

// Resolve returns the trust decision for sharing from sourceOrgID to
// targetOrgID. Unknown organization IDs surface as not found errors; a pair
// with no trust path is not an error but a deny decision.
func (r *Resolver) Resolve(ctx context.Context, sourceOrgID, targetOrgID uint) (Decision, error) {
	if sourceOrgID == 0 || targetOrgID == 0 {
		return Decision{}, errors.NewValidationError("organization IDs are required")
	}

	if _, err := r.orgRepo.GetByID(ctx, sourceOrgID); err != nil {
		return Decision{}, fmt.Errorf("source organization lookup: %w", err)
	}

	if sourceOrgID == targetOrgID {
		return Decision{
			Anonymization: vo.AnonymizationNone,
			Access:        vo.AccessFull,
			Basis:         BasisSelf,
		}, nil
	}

	if _, err := r.orgRepo.GetByID(ctx, targetOrgID); err != nil {
		return Decision{}, fmt.Errorf("target organization lookup: %w", err)
	}

	now := biztime.NowUTC()

	rel, err := r.relRepo.GetActiveForPair(ctx, sourceOrgID, targetOrgID)
	if err != nil {
		return Decision{}, fmt.Errorf("relationship lookup: %w", err)
	}
	if rel != nil && rel.IsEffectiveAt(now) {
		return Decision{
			Level:         rel.Level(),
			Anonymization: rel.EffectiveAnonymization(),
			Access:        rel.EffectiveAccess(),
			Basis:         BasisRelationship,
		}, nil
	}

	groups, err := r.groupRepo.GetSharedGroups(ctx, sourceOrgID, targetOrgID)
	if err != nil {
		return Decision{}, fmt.Errorf("shared group lookup: %w", err)
	}
	if len(groups) > 0 {
		best := pickBestGroup(groups)
		r.logger.Debugw("trust resolved via shared group",
			"source_org_id", sourceOrgID,
			"target_org_id", targetOrgID,
			"group_id", best.ID(),
			"level", best.Level().Slug(),
		)
		return Decision{
			Level:         best.Level(),
			Anonymization: best.Level().DefaultAnonymization(),
			Access:        best.Level().DefaultAccess(),
			Basis:         BasisGroup,
		}, nil
	}

	// No trust path: fail closed.
	return Decision{
		Anonymization: vo.AnonymizationFull,
		Access:        vo.AccessNone,
		Basis:         BasisNone,
	}, nil
}

// pickBestGroup selects the group with the highest trust level numerical
// value; ties break on the lowest group ID for determinism.
func pickBestGroup(groups []*Group) *Group {
	sorted := make([]*Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		vi, vj := sorted[i].Level().NumericalValue(), sorted[j].Level().NumericalValue()
		if vi != vj {
			return vi > vj
		}
		return sorted[i].ID() < sorted[j].ID()
	})
	return sorted[0]
}
