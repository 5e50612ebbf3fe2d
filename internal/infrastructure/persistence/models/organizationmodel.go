package models

import (
	"time"

	"stixgate/internal/shared/constants"
)

// OrganizationModel represents the database persistence model for organizations
type OrganizationModel struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"not null;size:255;uniqueIndex"`
	Domain    string `gorm:"not null;size:255;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (OrganizationModel) TableName() string {
	return constants.TableOrganizations
}
