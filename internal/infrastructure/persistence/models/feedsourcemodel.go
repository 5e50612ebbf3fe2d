package models

import (
	"time"

	"gorm.io/datatypes"

	"stixgate/internal/shared/constants"
)

// FeedSourceModel represents the database persistence model for TAXII feed
// sources. Credentials are stored as JSON keyed by credential name.
type FeedSourceModel struct {
	ID             uint   `gorm:"primarykey"`
	Name           string `gorm:"not null;size:255;uniqueIndex"`
	DiscoveryURL   string `gorm:"not null;size:2048"`
	APIRoot        string `gorm:"not null;size:2048"`
	CollectionID   string `gorm:"not null;size:255"`
	PollInterval   string `gorm:"not null;size:20;default:daily"`
	AuthType       string `gorm:"not null;size:20;default:none"`
	Credentials    datatypes.JSON
	TimeoutSeconds int  `gorm:"not null;default:0"`
	RateLimit      int  `gorm:"not null;default:0"`
	SourceOrgID    uint `gorm:"not null;index"`
	IsActive       bool `gorm:"not null;default:true;index"`
	LastPollTime   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (FeedSourceModel) TableName() string {
	return constants.TableFeedSources
}
