package trust

import "context"

// LevelRepository defines persistence operations for trust levels.
type LevelRepository interface {
	Create(ctx context.Context, level *Level) error
	GetByID(ctx context.Context, id uint) (*Level, error)
	GetBySlug(ctx context.Context, slug string) (*Level, error)
	// GetSystemDefault returns the single level flagged is_system_default,
	// or nil when none is configured.
	GetSystemDefault(ctx context.Context) (*Level, error)
	// SetSystemDefault atomically clears any previous default and flags the
	// given level, preserving the at-most-one-default invariant.
	SetSystemDefault(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*Level, error)
}

// RelationshipRepository defines persistence operations for trust
// relationships.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *Relationship) error
	Update(ctx context.Context, rel *Relationship) error
	GetByID(ctx context.Context, id uint) (*Relationship, error)
	// GetActiveForPair returns the relationship for the ordered
	// (source, target) pair whose stored status is active, or nil when none
	// exists. Expiry and approval checks remain the caller's concern.
	GetActiveForPair(ctx context.Context, sourceOrgID, targetOrgID uint) (*Relationship, error)
	ListBySourceOrg(ctx context.Context, sourceOrgID uint) ([]*Relationship, error)
}

// GroupRepository defines persistence operations for trust groups.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	Update(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id uint) (*Group, error)
	// GetSharedGroups returns all groups in which both organizations are
	// active members, with the default level attached.
	GetSharedGroups(ctx context.Context, orgA, orgB uint) ([]*Group, error)
}
