package models

import (
	"time"

	"stixgate/internal/shared/constants"
)

// FeedConsumptionLogModel represents the database persistence model for
// per-poll consumption logs
type FeedConsumptionLogModel struct {
	ID               uint       `gorm:"primarykey"`
	FeedID           uint       `gorm:"not null;index:idx_feed_started,priority:1"`
	Status           string     `gorm:"not null;size:20;index"`
	ObjectsRetrieved int        `gorm:"not null;default:0"`
	ObjectsProcessed int        `gorm:"not null;default:0"`
	ObjectsFailed    int        `gorm:"not null;default:0"`
	ErrorMessage     string     `gorm:"type:text"`
	StartedAt        time.Time  `gorm:"not null;index:idx_feed_started,priority:2"`
	CompletedAt      *time.Time
	CreatedAt        time.Time
}

// TableName specifies the table name for GORM
func (FeedConsumptionLogModel) TableName() string {
	return constants.TableFeedConsumptionLogs
}
