package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "stixgate/internal/domain/trust/valueobjects"
)

func mustLevel(t *testing.T, slug string, value int, anon vo.AnonymizationLevel, access vo.AccessLevel) *Level {
	t.Helper()
	level, err := ReconstructLevel(1, slug, slug, value, anon, access, false, time.Now(), time.Now())
	require.NoError(t, err)
	return level
}

func TestNewRelationship_Validation(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	now := time.Now().UTC()

	tests := []struct {
		name       string
		sourceOrg  uint
		targetOrg  uint
		level      *Level
		validUntil *time.Time
		wantErr    string
	}{
		{
			name:      "missing source",
			sourceOrg: 0, targetOrg: 2, level: level,
			wantErr: "source organization ID is required",
		},
		{
			name:      "missing target",
			sourceOrg: 1, targetOrg: 0, level: level,
			wantErr: "target organization ID is required",
		},
		{
			name:      "self relationship",
			sourceOrg: 1, targetOrg: 1, level: level,
			wantErr: "source and target organization must differ",
		},
		{
			name:      "missing level",
			sourceOrg: 1, targetOrg: 2, level: nil,
			wantErr: "trust level is required",
		},
		{
			name:      "window ends before it starts",
			sourceOrg: 1, targetOrg: 2, level: level,
			validUntil: timePtr(now.Add(-time.Hour)),
			wantErr:    "valid_until must be after valid_from",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := NewRelationship(tt.sourceOrg, tt.targetOrg, tt.level, now, tt.validUntil)
			require.Error(t, err)
			assert.Nil(t, rel)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRelationship_Lifecycle(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	now := time.Now().UTC()

	rel, err := NewRelationship(1, 2, level, now.Add(-time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusPending, rel.Status())
	assert.False(t, rel.IsEffectiveAt(now))

	// Activation requires both approvals.
	err = rel.Activate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval from both sides")

	require.NoError(t, rel.Approve(true))
	err = rel.Activate()
	require.Error(t, err)

	require.NoError(t, rel.Approve(false))
	require.NoError(t, rel.Activate())
	assert.Equal(t, vo.StatusActive, rel.Status())
	assert.True(t, rel.IsEffectiveAt(now))

	// Suspend pauses, resume goes back to pending.
	require.NoError(t, rel.Suspend())
	assert.Equal(t, vo.StatusInactive, rel.Status())
	assert.False(t, rel.IsEffectiveAt(now))

	require.NoError(t, rel.Resume())
	assert.Equal(t, vo.StatusPending, rel.Status())

	// Approvals survived the pause, so activation succeeds directly.
	require.NoError(t, rel.Activate())

	// Revocation is terminal.
	require.NoError(t, rel.Revoke("admin@example.org", "partner offboarded"))
	assert.Equal(t, vo.StatusRevoked, rel.Status())
	assert.NotNil(t, rel.RevokedAt())
	assert.Equal(t, "admin@example.org", rel.RevokedBy())
	assert.False(t, rel.IsEffectiveAt(now))

	assert.Error(t, rel.Revoke("admin@example.org", "again"))
	assert.Error(t, rel.Approve(true))
	assert.Error(t, rel.Suspend())
	assert.Error(t, rel.Resume())
}

func TestRelationship_RevokeRequiresActor(t *testing.T) {
	level := mustLevel(t, "basic", 40, vo.AnonymizationPartial, vo.AccessRead)
	rel, err := NewRelationship(1, 2, level, time.Now().UTC(), nil)
	require.NoError(t, err)

	err = rel.Revoke("", "no actor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoking actor is required")
	assert.Equal(t, vo.StatusPending, rel.Status())
}

func TestRelationship_ExpiryIsDerived(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	now := time.Now().UTC()
	until := now.Add(time.Hour)

	rel, err := NewRelationship(1, 2, level, now.Add(-time.Hour), &until)
	require.NoError(t, err)
	require.NoError(t, rel.Approve(true))
	require.NoError(t, rel.Approve(false))
	require.NoError(t, rel.Activate())

	assert.True(t, rel.IsEffectiveAt(now))
	assert.False(t, rel.IsExpired(now))

	later := until.Add(time.Minute)
	assert.True(t, rel.IsExpired(later))
	assert.False(t, rel.IsEffectiveAt(later))
	// The stored status never flips on expiry.
	assert.Equal(t, vo.StatusActive, rel.Status())
}

func TestRelationship_NotEffectiveBeforeWindow(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	now := time.Now().UTC()

	rel, err := NewRelationship(1, 2, level, now.Add(time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, rel.Approve(true))
	require.NoError(t, rel.Approve(false))
	require.NoError(t, rel.Activate())

	assert.False(t, rel.IsEffectiveAt(now))
	assert.True(t, rel.IsEffectiveAt(now.Add(2*time.Hour)))
}

func TestRelationship_EffectiveOverrides(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	rel, err := NewRelationship(1, 2, level, time.Now().UTC(), nil)
	require.NoError(t, err)

	// Level defaults apply without overrides.
	assert.Equal(t, vo.AnonymizationMinimal, rel.EffectiveAnonymization())
	assert.Equal(t, vo.AccessSubscribe, rel.EffectiveAccess())

	anon := vo.AnonymizationFull
	access := vo.AccessRead
	require.NoError(t, rel.SetOverrides(&anon, &access))
	assert.Equal(t, vo.AnonymizationFull, rel.EffectiveAnonymization())
	assert.Equal(t, vo.AccessRead, rel.EffectiveAccess())

	// Clearing restores the defaults.
	require.NoError(t, rel.SetOverrides(nil, nil))
	assert.Equal(t, vo.AnonymizationMinimal, rel.EffectiveAnonymization())
	assert.Equal(t, vo.AccessSubscribe, rel.EffectiveAccess())

	bad := vo.AnonymizationLevel("bogus")
	assert.Error(t, rel.SetOverrides(&bad, nil))
}

func TestRelationship_VersionIncrements(t *testing.T) {
	level := mustLevel(t, "trusted", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	rel, err := NewRelationship(1, 2, level, time.Now().UTC(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rel.Version())

	require.NoError(t, rel.Approve(true))
	assert.Equal(t, 2, rel.Version())
	require.NoError(t, rel.Approve(false))
	assert.Equal(t, 3, rel.Version())
}

func timePtr(t time.Time) *time.Time {
	return &t
}
