package valueobjects

// RelationshipStatus is the stored lifecycle state of a trust relationship.
// Expiry is derived from the validity window and never stored as a status.
type RelationshipStatus string

const (
	// StatusPending means the relationship awaits approval from one or both sides.
	StatusPending RelationshipStatus = "pending"
	// StatusActive means the relationship is approved and in effect.
	StatusActive RelationshipStatus = "active"
	// StatusInactive is a reversible manual pause.
	StatusInactive RelationshipStatus = "inactive"
	// StatusRevoked is terminal.
	StatusRevoked RelationshipStatus = "revoked"
)

// IsValid reports whether the status is a known state.
func (s RelationshipStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusRevoked:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s RelationshipStatus) IsTerminal() bool {
	return s == StatusRevoked
}

func (s RelationshipStatus) String() string {
	return string(s)
}
