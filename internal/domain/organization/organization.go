// Package organization defines the sharing participants. An organization is
// an immutable identity referenced by trust relationships and STIX objects.
package organization

import (
	"fmt"
	"strings"
	"time"
)

// Organization represents a participant in threat intelligence sharing.
type Organization struct {
	id        uint
	name      string
	domain    string
	createdAt time.Time
}

// NewOrganization creates a new organization.
func NewOrganization(name, domain string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, fmt.Errorf("organization domain is required")
	}

	return &Organization{
		name:      name,
		domain:    domain,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructOrganization reconstructs an organization from persistence.
func ReconstructOrganization(id uint, name, domain string, createdAt time.Time) (*Organization, error) {
	if id == 0 {
		return nil, fmt.Errorf("organization ID cannot be zero")
	}
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	return &Organization{
		id:        id,
		name:      name,
		domain:    domain,
		createdAt: createdAt,
	}, nil
}

// ID returns the organization ID.
func (o *Organization) ID() uint {
	return o.id
}

// Name returns the organization name.
func (o *Organization) Name() string {
	return o.name
}

// Domain returns the organization domain.
func (o *Organization) Domain() string {
	return o.domain
}

// CreatedAt returns when the organization was created.
func (o *Organization) CreatedAt() time.Time {
	return o.createdAt
}

// SetID sets the organization ID (only for persistence layer use).
func (o *Organization) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("organization ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("organization ID cannot be zero")
	}
	o.id = id
	return nil
}
