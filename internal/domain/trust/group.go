package trust

import (
	"fmt"
	"strings"
	"time"
)

// Group is a set of organizations sharing a default trust level. Groups are
// the fallback when no direct relationship exists between two organizations.
type Group struct {
	id          uint
	name        string
	description string
	level       *Level
	members     map[uint]*Membership
	createdAt   time.Time
	updatedAt   time.Time
}

// Membership records an organization's participation in a group.
type Membership struct {
	OrgID    uint
	Active   bool
	JoinedAt time.Time
}

// NewGroup creates a new trust group with the given default level.
func NewGroup(name, description string, level *Level) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("trust group name is required")
	}
	if level == nil {
		return nil, fmt.Errorf("default trust level is required")
	}

	now := time.Now().UTC()
	return &Group{
		name:        name,
		description: description,
		level:       level,
		members:     make(map[uint]*Membership),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructGroup reconstructs a group and its memberships from persistence.
func ReconstructGroup(id uint, name, description string, level *Level, members []*Membership, createdAt, updatedAt time.Time) (*Group, error) {
	if id == 0 {
		return nil, fmt.Errorf("trust group ID cannot be zero")
	}
	if level == nil {
		return nil, fmt.Errorf("default trust level is required")
	}

	memberMap := make(map[uint]*Membership, len(members))
	for _, m := range members {
		if m.OrgID == 0 {
			return nil, fmt.Errorf("membership organization ID cannot be zero")
		}
		memberMap[m.OrgID] = m
	}

	return &Group{
		id:          id,
		name:        name,
		description: description,
		level:       level,
		members:     memberMap,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// ID returns the group ID.
func (g *Group) ID() uint {
	return g.id
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Description returns the group description.
func (g *Group) Description() string {
	return g.description
}

// Level returns the group's default trust level.
func (g *Group) Level() *Level {
	return g.level
}

// CreatedAt returns when the group was created.
func (g *Group) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt returns when the group was last updated.
func (g *Group) UpdatedAt() time.Time {
	return g.updatedAt
}

// Members returns the group memberships.
func (g *Group) Members() []*Membership {
	out := make([]*Membership, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m)
	}
	return out
}

// SetID sets the group ID (only for persistence layer use).
func (g *Group) SetID(id uint) error {
	if g.id != 0 {
		return fmt.Errorf("trust group ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("trust group ID cannot be zero")
	}
	g.id = id
	return nil
}

// AddMember adds an organization as an active member. Re-adding an existing
// member reactivates it.
func (g *Group) AddMember(orgID uint) error {
	if orgID == 0 {
		return fmt.Errorf("organization ID is required")
	}
	if m, ok := g.members[orgID]; ok {
		m.Active = true
	} else {
		g.members[orgID] = &Membership{
			OrgID:    orgID,
			Active:   true,
			JoinedAt: time.Now().UTC(),
		}
	}
	g.updatedAt = time.Now().UTC()
	return nil
}

// DeactivateMember pauses a membership without removing the record.
func (g *Group) DeactivateMember(orgID uint) error {
	m, ok := g.members[orgID]
	if !ok {
		return fmt.Errorf("organization %d is not a member of group %q", orgID, g.name)
	}
	m.Active = false
	g.updatedAt = time.Now().UTC()
	return nil
}

// RemoveMember removes a membership entirely.
func (g *Group) RemoveMember(orgID uint) error {
	if _, ok := g.members[orgID]; !ok {
		return fmt.Errorf("organization %d is not a member of group %q", orgID, g.name)
	}
	delete(g.members, orgID)
	g.updatedAt = time.Now().UTC()
	return nil
}

// HasActiveMember reports whether the organization is an active member.
func (g *Group) HasActiveMember(orgID uint) bool {
	m, ok := g.members[orgID]
	return ok && m.Active
}
