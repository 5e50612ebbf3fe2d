package feed

import (
	"context"
	"time"
)

// SourceRepository persists feed sources.
type SourceRepository interface {
	Create(ctx context.Context, source *Source) error
	Update(ctx context.Context, source *Source) error
	GetByID(ctx context.Context, id uint) (*Source, error)
	List(ctx context.Context) ([]*Source, error)
	ListActive(ctx context.Context) ([]*Source, error)
	Delete(ctx context.Context, id uint) error
}

// LogRepository persists consumption logs.
type LogRepository interface {
	Create(ctx context.Context, log *ConsumptionLog) error
	Update(ctx context.Context, log *ConsumptionLog) error
	GetLatestForFeed(ctx context.Context, feedID uint) (*ConsumptionLog, error)
	ListForFeed(ctx context.Context, feedID uint, limit int) ([]*ConsumptionLog, error)
	ListFailedSince(ctx context.Context, since time.Time) ([]*ConsumptionLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
