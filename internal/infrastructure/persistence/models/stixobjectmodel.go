package models

import (
	"time"

	"gorm.io/datatypes"

	"stixgate/internal/shared/constants"
)

// StixObjectModel represents the database persistence model for stored STIX
// objects. Raw holds the full original payload; stored objects are never
// anonymized in place.
type StixObjectModel struct {
	ID          uint           `gorm:"primarykey"`
	StixID      string         `gorm:"not null;size:255;uniqueIndex"`
	StixType    string         `gorm:"not null;size:50;index"`
	SpecVersion string         `gorm:"not null;size:10"`
	Created     time.Time      `gorm:"not null"`
	Modified    time.Time      `gorm:"not null;index"`
	Raw         datatypes.JSON `gorm:"not null"`
	SourceOrgID uint           `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (StixObjectModel) TableName() string {
	return constants.TableStixObjects
}
