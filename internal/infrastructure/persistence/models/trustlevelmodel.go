package models

import (
	"time"

	"stixgate/internal/shared/constants"
)

// TrustLevelModel represents the database persistence model for trust levels
type TrustLevelModel struct {
	ID                   uint   `gorm:"primarykey"`
	Name                 string `gorm:"not null;size:100"`
	Slug                 string `gorm:"not null;size:100;uniqueIndex"`
	NumericalValue       int    `gorm:"not null;index"`
	DefaultAnonymization string `gorm:"not null;size:20"`
	DefaultAccess        string `gorm:"not null;size:20"`
	IsSystemDefault      bool   `gorm:"not null;default:false;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Version              int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (TrustLevelModel) TableName() string {
	return constants.TableTrustLevels
}
