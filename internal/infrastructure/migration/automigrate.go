// Package migration keeps the database schema in step with the persistence
// models via gorm's auto-migration.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"stixgate/internal/infrastructure/persistence/models"
)

// Models lists every persisted model in dependency order so foreign keys
// resolve during migration.
func Models() []any {
	return []any{
		&models.OrganizationModel{},
		&models.TrustLevelModel{},
		&models.TrustRelationshipModel{},
		&models.TrustGroupModel{},
		&models.TrustGroupMemberModel{},
		&models.FeedSourceModel{},
		&models.FeedConsumptionLogModel{},
		&models.StixObjectModel{},
	}
}

// Run applies pending schema changes for all registered models.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}
