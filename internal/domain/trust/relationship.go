package trust

import (
	"fmt"
	"time"

	vo "stixgate/internal/domain/trust/valueobjects"
)

// Relationship is a directed trust edge from a source organization to a
// target organization. It carries a trust level, optional per-relationship
// anonymization/access overrides, a validity window, and approval flags from
// both sides.
//
// At most one active relationship may exist per ordered (source, target)
// pair; the persistence layer enforces this with a unique constraint.
type Relationship struct {
	id                    uint
	sourceOrgID           uint
	targetOrgID           uint
	level                 *Level
	status                vo.RelationshipStatus
	anonymizationOverride *vo.AnonymizationLevel
	accessOverride        *vo.AccessLevel
	sourceApproved        bool
	targetApproved        bool
	validFrom             time.Time
	validUntil            *time.Time
	revokedAt             *time.Time
	revokedBy             string
	revokeReason          string
	createdAt             time.Time
	updatedAt             time.Time
	version               int
}

// NewRelationship creates a pending relationship between two distinct
// organizations. validUntil may be nil for an unbounded relationship.
func NewRelationship(sourceOrgID, targetOrgID uint, level *Level, validFrom time.Time, validUntil *time.Time) (*Relationship, error) {
	if sourceOrgID == 0 {
		return nil, fmt.Errorf("source organization ID is required")
	}
	if targetOrgID == 0 {
		return nil, fmt.Errorf("target organization ID is required")
	}
	if sourceOrgID == targetOrgID {
		return nil, fmt.Errorf("source and target organization must differ")
	}
	if level == nil {
		return nil, fmt.Errorf("trust level is required")
	}
	if validUntil != nil && !validUntil.After(validFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &Relationship{
		sourceOrgID: sourceOrgID,
		targetOrgID: targetOrgID,
		level:       level,
		status:      vo.StatusPending,
		validFrom:   validFrom.UTC(),
		validUntil:  validUntil,
		createdAt:   now,
		updatedAt:   now,
		version:     1,
	}, nil
}

// ReconstructRelationship reconstructs a relationship from persistence.
func ReconstructRelationship(
	id uint,
	sourceOrgID, targetOrgID uint,
	level *Level,
	status vo.RelationshipStatus,
	anonymizationOverride *vo.AnonymizationLevel,
	accessOverride *vo.AccessLevel,
	sourceApproved, targetApproved bool,
	validFrom time.Time,
	validUntil, revokedAt *time.Time,
	revokedBy, revokeReason string,
	createdAt, updatedAt time.Time,
	version int,
) (*Relationship, error) {
	if id == 0 {
		return nil, fmt.Errorf("relationship ID cannot be zero")
	}
	if sourceOrgID == 0 || targetOrgID == 0 {
		return nil, fmt.Errorf("organization IDs are required")
	}
	if sourceOrgID == targetOrgID {
		return nil, fmt.Errorf("source and target organization must differ")
	}
	if level == nil {
		return nil, fmt.Errorf("trust level is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid relationship status: %s", status)
	}
	if anonymizationOverride != nil && !anonymizationOverride.IsValid() {
		return nil, fmt.Errorf("invalid anonymization override: %s", *anonymizationOverride)
	}
	if accessOverride != nil && !accessOverride.IsValid() {
		return nil, fmt.Errorf("invalid access override: %s", *accessOverride)
	}

	return &Relationship{
		id:                    id,
		sourceOrgID:           sourceOrgID,
		targetOrgID:           targetOrgID,
		level:                 level,
		status:                status,
		anonymizationOverride: anonymizationOverride,
		accessOverride:        accessOverride,
		sourceApproved:        sourceApproved,
		targetApproved:        targetApproved,
		validFrom:             validFrom,
		validUntil:            validUntil,
		revokedAt:             revokedAt,
		revokedBy:             revokedBy,
		revokeReason:          revokeReason,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
		version:               version,
	}, nil
}

// ID returns the relationship ID.
func (r *Relationship) ID() uint {
	return r.id
}

// SourceOrgID returns the source organization ID.
func (r *Relationship) SourceOrgID() uint {
	return r.sourceOrgID
}

// TargetOrgID returns the target organization ID.
func (r *Relationship) TargetOrgID() uint {
	return r.targetOrgID
}

// Level returns the trust level carried by the relationship.
func (r *Relationship) Level() *Level {
	return r.level
}

// Status returns the stored lifecycle status.
func (r *Relationship) Status() vo.RelationshipStatus {
	return r.status
}

// SourceApproved reports whether the source side has approved.
func (r *Relationship) SourceApproved() bool {
	return r.sourceApproved
}

// TargetApproved reports whether the target side has approved.
func (r *Relationship) TargetApproved() bool {
	return r.targetApproved
}

// ValidFrom returns the start of the validity window.
func (r *Relationship) ValidFrom() time.Time {
	return r.validFrom
}

// ValidUntil returns the end of the validity window, nil for unbounded.
func (r *Relationship) ValidUntil() *time.Time {
	return r.validUntil
}

// RevokedAt returns when the relationship was revoked, nil if never.
func (r *Relationship) RevokedAt() *time.Time {
	return r.revokedAt
}

// RevokedBy returns the actor that revoked the relationship.
func (r *Relationship) RevokedBy() string {
	return r.revokedBy
}

// RevokeReason returns the recorded revocation reason.
func (r *Relationship) RevokeReason() string {
	return r.revokeReason
}

// AnonymizationOverride returns the per-relationship override, nil if the
// level default applies.
func (r *Relationship) AnonymizationOverride() *vo.AnonymizationLevel {
	return r.anonymizationOverride
}

// AccessOverride returns the per-relationship override, nil if the level
// default applies.
func (r *Relationship) AccessOverride() *vo.AccessLevel {
	return r.accessOverride
}

// CreatedAt returns when the relationship was created.
func (r *Relationship) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the relationship was last updated.
func (r *Relationship) UpdatedAt() time.Time {
	return r.updatedAt
}

// Version returns the aggregate version.
func (r *Relationship) Version() int {
	return r.version
}

// SetID sets the relationship ID (only for persistence layer use).
func (r *Relationship) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("relationship ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("relationship ID cannot be zero")
	}
	r.id = id
	return nil
}

// Approve records approval from one side of the relationship.
func (r *Relationship) Approve(bysource bool) error {
	if r.status.IsTerminal() {
		return fmt.Errorf("cannot approve %s relationship", r.status)
	}
	if bysource {
		r.sourceApproved = true
	} else {
		r.targetApproved = true
	}
	r.touch()
	return nil
}

// Activate transitions pending -> active. Both approval flags must already
// be set.
func (r *Relationship) Activate() error {
	if r.status != vo.StatusPending {
		return fmt.Errorf("cannot activate relationship in status %s", r.status)
	}
	if !r.sourceApproved || !r.targetApproved {
		return fmt.Errorf("cannot activate relationship without approval from both sides")
	}
	r.status = vo.StatusActive
	r.touch()
	return nil
}

// Revoke terminally revokes the relationship from pending or active state.
func (r *Relationship) Revoke(actor, reason string) error {
	if r.status == vo.StatusRevoked {
		return fmt.Errorf("relationship is already revoked")
	}
	if r.status != vo.StatusPending && r.status != vo.StatusActive {
		return fmt.Errorf("cannot revoke relationship in status %s", r.status)
	}
	if actor == "" {
		return fmt.Errorf("revoking actor is required")
	}

	now := time.Now().UTC()
	r.status = vo.StatusRevoked
	r.revokedAt = &now
	r.revokedBy = actor
	r.revokeReason = reason
	r.touch()
	return nil
}

// Suspend manually pauses an active or pending relationship.
func (r *Relationship) Suspend() error {
	if r.status != vo.StatusActive && r.status != vo.StatusPending {
		return fmt.Errorf("cannot suspend relationship in status %s", r.status)
	}
	r.status = vo.StatusInactive
	r.touch()
	return nil
}

// Resume moves a suspended relationship back to pending. Activation (and its
// approval requirements) must be repeated.
func (r *Relationship) Resume() error {
	if r.status != vo.StatusInactive {
		return fmt.Errorf("cannot resume relationship in status %s", r.status)
	}
	r.status = vo.StatusPending
	r.touch()
	return nil
}

// SetOverrides replaces the per-relationship anonymization/access overrides.
// Nil clears an override, restoring the level default.
func (r *Relationship) SetOverrides(anonymization *vo.AnonymizationLevel, access *vo.AccessLevel) error {
	if anonymization != nil && !anonymization.IsValid() {
		return fmt.Errorf("invalid anonymization override: %s", *anonymization)
	}
	if access != nil && !access.IsValid() {
		return fmt.Errorf("invalid access override: %s", *access)
	}
	r.anonymizationOverride = anonymization
	r.accessOverride = access
	r.touch()
	return nil
}

// IsExpired reports whether the validity window has passed at the given
// time. Expiry is derived; the stored status never flips to an expired
// state.
func (r *Relationship) IsExpired(now time.Time) bool {
	return r.validUntil != nil && r.validUntil.Before(now)
}

// IsEffectiveAt reports whether the relationship grants trust at the given
// time: status active, both sides approved, and now within the validity
// window.
func (r *Relationship) IsEffectiveAt(now time.Time) bool {
	if r.status != vo.StatusActive {
		return false
	}
	if !r.sourceApproved || !r.targetApproved {
		return false
	}
	if now.Before(r.validFrom) {
		return false
	}
	return !r.IsExpired(now)
}

// EffectiveAnonymization returns the override if set, else the level
// default.
func (r *Relationship) EffectiveAnonymization() vo.AnonymizationLevel {
	if r.anonymizationOverride != nil {
		return *r.anonymizationOverride
	}
	return r.level.DefaultAnonymization()
}

// EffectiveAccess returns the override if set, else the level default.
func (r *Relationship) EffectiveAccess() vo.AccessLevel {
	if r.accessOverride != nil {
		return *r.accessOverride
	}
	return r.level.DefaultAccess()
}

func (r *Relationship) touch() {
	r.updatedAt = time.Now().UTC()
	r.version++
}
