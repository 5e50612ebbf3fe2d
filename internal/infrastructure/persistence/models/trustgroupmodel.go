package models

import (
	"time"

	"stixgate/internal/shared/constants"
)

// TrustGroupModel represents the database persistence model for trust groups
type TrustGroupModel struct {
	ID           uint   `gorm:"primarykey"`
	Name         string `gorm:"not null;size:255;uniqueIndex"`
	Description  string `gorm:"size:1000"`
	TrustLevelID uint   `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (TrustGroupModel) TableName() string {
	return constants.TableTrustGroups
}

// TrustGroupMemberModel represents one organization's membership in a group
type TrustGroupMemberModel struct {
	ID             uint `gorm:"primarykey"`
	GroupID        uint `gorm:"not null;uniqueIndex:idx_unique_member,priority:1;index"`
	OrganizationID uint `gorm:"not null;uniqueIndex:idx_unique_member,priority:2;index"`
	Active         bool `gorm:"not null;default:true"`
	JoinedAt       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (TrustGroupMemberModel) TableName() string {
	return constants.TableTrustGroupMembers
}
