// Package migrate wires the schema migration command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"stixgate/internal/infrastructure/config"
	"stixgate/internal/infrastructure/database"
	"stixgate/internal/infrastructure/migration"
	"stixgate/internal/shared/logger"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Long:  `Bring the database schema up to date with the current persistence models.`,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log.Infow("running schema migration")
	if err := migration.Run(database.Get()); err != nil {
		log.Errorw("schema migration failed", "error", err)
		return err
	}

	log.Infow("schema migration completed")
	return nil
}
