package organization

import "context"

// Repository defines persistence operations for organizations.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id uint) (*Organization, error)
	GetByDomain(ctx context.Context, domain string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}
