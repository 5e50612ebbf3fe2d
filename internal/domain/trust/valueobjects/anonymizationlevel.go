package valueobjects

// AnonymizationLevel is the tier of detail stripping applied to STIX objects
// before sharing. Ordering is total: None < Minimal < Partial < Full.
type AnonymizationLevel string

const (
	AnonymizationNone    AnonymizationLevel = "none"
	AnonymizationMinimal AnonymizationLevel = "minimal"
	AnonymizationPartial AnonymizationLevel = "partial"
	AnonymizationFull    AnonymizationLevel = "full"
)

// IsValid reports whether the level is a known tier.
func (l AnonymizationLevel) IsValid() bool {
	switch l {
	case AnonymizationNone, AnonymizationMinimal, AnonymizationPartial, AnonymizationFull:
		return true
	}
	return false
}

// Rank returns the position in the tier ordering. Higher means more
// information removed. Unknown levels rank as Full (fail closed).
func (l AnonymizationLevel) Rank() int {
	switch l {
	case AnonymizationNone:
		return 0
	case AnonymizationMinimal:
		return 1
	case AnonymizationPartial:
		return 2
	default:
		return 3
	}
}

// MoreRestrictiveThan reports whether l removes strictly more information
// than other.
func (l AnonymizationLevel) MoreRestrictiveThan(other AnonymizationLevel) bool {
	return l.Rank() > other.Rank()
}

func (l AnonymizationLevel) String() string {
	return string(l)
}
