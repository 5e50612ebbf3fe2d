// Package sharing implements the anonymization strategies and the engine
// that renders STIX objects for a requesting organization according to the
// resolved trust level.
package sharing

import (
	"stixgate/internal/domain/stix"
	vo "stixgate/internal/domain/trust/valueobjects"
)

// sharedIdentityRef replaces created_by_ref at the partial tier so that
// recipients see a generic "shared via trust" identity instead of the
// original producer.
const sharedIdentityRef = "identity--8a2fcf2e-6f25-4a65-9e20-7ba16b348d17"

// Options carries per-render context the strategies need.
type Options struct {
	// OrgNames are organization names to redact from free-text fields.
	OrgNames []string
}

// Strategy transforms a STIX object to one anonymization tier. Strategies
// are pure: they never mutate the input object and always derive a new one.
// Applying the same strategy to its own output yields an identical result.
type Strategy interface {
	Name() string
	Level() vo.AnonymizationLevel
	Apply(obj *stix.Object, opts Options) (*stix.Object, error)
}

// Registry maps anonymization levels to their strategies.
type Registry struct {
	strategies map[vo.AnonymizationLevel]Strategy
}

// NewRegistry builds the default registry with all four tiers.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[vo.AnonymizationLevel]Strategy)}
	for _, s := range []Strategy{
		NewNoneStrategy(),
		NewMinimalStrategy(),
		NewPartialStrategy(),
		NewFullStrategy(),
	} {
		r.strategies[s.Level()] = s
	}
	return r
}

// ForLevel returns the strategy for a tier. Unknown tiers resolve to the
// full strategy (fail closed).
func (r *Registry) ForLevel(level vo.AnonymizationLevel) Strategy {
	if s, ok := r.strategies[level]; ok {
		return s
	}
	return r.strategies[vo.AnonymizationFull]
}

// Fallback returns the full-tier strategy used when an object cannot be
// processed at its intended tier.
func (r *Registry) Fallback() Strategy {
	return r.strategies[vo.AnonymizationFull]
}
