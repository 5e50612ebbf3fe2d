package models

import (
	"time"

	"stixgate/internal/shared/constants"
)

// TrustRelationshipModel represents the database persistence model for
// directed trust relationships between organizations
type TrustRelationshipModel struct {
	ID                    uint    `gorm:"primarykey"`
	SourceOrgID           uint    `gorm:"not null;uniqueIndex:idx_unique_pair,priority:1;index:idx_source_status,priority:1"`
	TargetOrgID           uint    `gorm:"not null;uniqueIndex:idx_unique_pair,priority:2"`
	TrustLevelID          uint    `gorm:"not null;index"`
	Status                string  `gorm:"not null;size:20;default:pending;index:idx_source_status,priority:2"`
	AnonymizationOverride *string `gorm:"size:20"`
	AccessOverride        *string `gorm:"size:20"`
	SourceApproved        bool    `gorm:"not null;default:false"`
	TargetApproved        bool    `gorm:"not null;default:false"`
	ValidFrom             time.Time `gorm:"not null"`
	ValidUntil            *time.Time
	RevokedAt             *time.Time
	RevokedBy             string `gorm:"size:255"`
	RevokeReason          string `gorm:"size:500"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (TrustRelationshipModel) TableName() string {
	return constants.TableTrustRelationships
}
