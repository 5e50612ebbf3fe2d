package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "stixgate/internal/domain/trust/valueobjects"
)

func TestNewLevel(t *testing.T) {
	level, err := NewLevel("Trusted Partner", "Trusted-Partner", 80, vo.AnonymizationMinimal, vo.AccessSubscribe)
	require.NoError(t, err)
	assert.Equal(t, "Trusted Partner", level.Name())
	assert.Equal(t, "trusted-partner", level.Slug())
	assert.Equal(t, 80, level.NumericalValue())
	assert.False(t, level.IsSystemDefault())
}

func TestNewLevel_Validation(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		slug    string
		value   int
		anon    vo.AnonymizationLevel
		access  vo.AccessLevel
		wantErr string
	}{
		{"empty name", " ", "x", 50, vo.AnonymizationNone, vo.AccessFull, "name is required"},
		{"empty slug", "X", "", 50, vo.AnonymizationNone, vo.AccessFull, "slug is required"},
		{"value too low", "X", "x", -1, vo.AnonymizationNone, vo.AccessFull, "between 0 and 100"},
		{"value too high", "X", "x", 101, vo.AnonymizationNone, vo.AccessFull, "between 0 and 100"},
		{"bad anonymization", "X", "x", 50, "bogus", vo.AccessFull, "invalid default anonymization"},
		{"bad access", "X", "x", 50, vo.AnonymizationNone, "bogus", "invalid default access"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := NewLevel(tt.level, tt.slug, tt.value, tt.anon, tt.access)
			require.Error(t, err)
			assert.Nil(t, level)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLevel_SystemDefaultFlag(t *testing.T) {
	level, err := NewLevel("Public", "public", 10, vo.AnonymizationFull, vo.AccessRead)
	require.NoError(t, err)

	level.MarkSystemDefault()
	assert.True(t, level.IsSystemDefault())

	level.ClearSystemDefault()
	assert.False(t, level.IsSystemDefault())
}

func TestAnonymizationLevel_Ordering(t *testing.T) {
	assert.True(t, vo.AnonymizationFull.MoreRestrictiveThan(vo.AnonymizationPartial))
	assert.True(t, vo.AnonymizationPartial.MoreRestrictiveThan(vo.AnonymizationMinimal))
	assert.True(t, vo.AnonymizationMinimal.MoreRestrictiveThan(vo.AnonymizationNone))
	assert.False(t, vo.AnonymizationNone.MoreRestrictiveThan(vo.AnonymizationFull))

	// Unknown tiers rank as full.
	unknown := vo.AnonymizationLevel("bogus")
	assert.False(t, unknown.MoreRestrictiveThan(vo.AnonymizationFull))
	assert.True(t, unknown.MoreRestrictiveThan(vo.AnonymizationPartial))
}

func TestAccessLevel_AllowsRead(t *testing.T) {
	assert.False(t, vo.AccessNone.AllowsRead())
	assert.True(t, vo.AccessRead.AllowsRead())
	assert.True(t, vo.AccessSubscribe.AllowsRead())
	assert.True(t, vo.AccessContribute.AllowsRead())
	assert.True(t, vo.AccessFull.AllowsRead())

	// Unknown levels fail closed.
	assert.False(t, vo.AccessLevel("bogus").AllowsRead())
}
