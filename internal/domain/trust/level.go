// Package trust holds the trust model: named trust levels, directed trust
// relationships between organizations, trust groups, and the resolver that
// turns them into an effective sharing decision.
package trust

import (
	"fmt"
	"strings"
	"time"

	vo "stixgate/internal/domain/trust/valueobjects"
)

// Level represents a named trust tier with a numerical ordering and the
// anonymization/access defaults applied when a relationship carries no
// explicit override.
type Level struct {
	id                   uint
	name                 string
	slug                 string
	numericalValue       int
	defaultAnonymization vo.AnonymizationLevel
	defaultAccess        vo.AccessLevel
	isSystemDefault      bool
	createdAt            time.Time
	updatedAt            time.Time
}

// NewLevel creates a new trust level. numericalValue orders levels from
// least (0) to most (100) trusted.
func NewLevel(name, slug string, numericalValue int, defaultAnonymization vo.AnonymizationLevel, defaultAccess vo.AccessLevel) (*Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("trust level name is required")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, fmt.Errorf("trust level slug is required")
	}
	if numericalValue < 0 || numericalValue > 100 {
		return nil, fmt.Errorf("numerical value must be between 0 and 100, got %d", numericalValue)
	}
	if !defaultAnonymization.IsValid() {
		return nil, fmt.Errorf("invalid default anonymization level: %s", defaultAnonymization)
	}
	if !defaultAccess.IsValid() {
		return nil, fmt.Errorf("invalid default access level: %s", defaultAccess)
	}

	now := time.Now().UTC()
	return &Level{
		name:                 name,
		slug:                 slug,
		numericalValue:       numericalValue,
		defaultAnonymization: defaultAnonymization,
		defaultAccess:        defaultAccess,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructLevel reconstructs a trust level from persistence.
func ReconstructLevel(
	id uint,
	name, slug string,
	numericalValue int,
	defaultAnonymization vo.AnonymizationLevel,
	defaultAccess vo.AccessLevel,
	isSystemDefault bool,
	createdAt, updatedAt time.Time,
) (*Level, error) {
	if id == 0 {
		return nil, fmt.Errorf("trust level ID cannot be zero")
	}
	if numericalValue < 0 || numericalValue > 100 {
		return nil, fmt.Errorf("numerical value must be between 0 and 100, got %d", numericalValue)
	}
	if !defaultAnonymization.IsValid() {
		return nil, fmt.Errorf("invalid default anonymization level: %s", defaultAnonymization)
	}
	if !defaultAccess.IsValid() {
		return nil, fmt.Errorf("invalid default access level: %s", defaultAccess)
	}

	return &Level{
		id:                   id,
		name:                 name,
		slug:                 slug,
		numericalValue:       numericalValue,
		defaultAnonymization: defaultAnonymization,
		defaultAccess:        defaultAccess,
		isSystemDefault:      isSystemDefault,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

// ID returns the trust level ID.
func (l *Level) ID() uint {
	return l.id
}

// Name returns the display name.
func (l *Level) Name() string {
	return l.name
}

// Slug returns the stable identifier used by operators.
func (l *Level) Slug() string {
	return l.slug
}

// NumericalValue returns the ordering value (0-100).
func (l *Level) NumericalValue() int {
	return l.numericalValue
}

// DefaultAnonymization returns the anonymization tier applied when a
// relationship has no override.
func (l *Level) DefaultAnonymization() vo.AnonymizationLevel {
	return l.defaultAnonymization
}

// DefaultAccess returns the access level applied when a relationship has no
// override.
func (l *Level) DefaultAccess() vo.AccessLevel {
	return l.defaultAccess
}

// IsSystemDefault reports whether this level is the single system default.
func (l *Level) IsSystemDefault() bool {
	return l.isSystemDefault
}

// CreatedAt returns when the level was created.
func (l *Level) CreatedAt() time.Time {
	return l.createdAt
}

// UpdatedAt returns when the level was last updated.
func (l *Level) UpdatedAt() time.Time {
	return l.updatedAt
}

// MarkSystemDefault flags this level as the system default. The repository
// is responsible for clearing the flag on any previous default in the same
// transaction; at most one default may exist at a time.
func (l *Level) MarkSystemDefault() {
	l.isSystemDefault = true
	l.updatedAt = time.Now().UTC()
}

// ClearSystemDefault removes the system default flag.
func (l *Level) ClearSystemDefault() {
	l.isSystemDefault = false
	l.updatedAt = time.Now().UTC()
}

// SetID sets the level ID (only for persistence layer use).
func (l *Level) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("trust level ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("trust level ID cannot be zero")
	}
	l.id = id
	return nil
}
