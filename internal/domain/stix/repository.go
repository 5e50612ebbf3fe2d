package stix

import "context"

// Repository defines persistence operations for STIX objects. Stored
// originals are immutable; anonymized views are derived on the read path and
// never written back.
type Repository interface {
	// Upsert stores an object, replacing an earlier version with the same
	// stix_id when the incoming modified timestamp is newer.
	Upsert(ctx context.Context, obj *Object) error
	GetByStixID(ctx context.Context, stixID string) (*Object, error)
	ListBySourceOrg(ctx context.Context, sourceOrgID uint, limit, offset int) ([]*Object, error)
	CountBySourceOrg(ctx context.Context, sourceOrgID uint) (int64, error)
}
