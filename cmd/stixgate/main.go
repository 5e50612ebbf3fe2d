package main

import (
	"os"

	"github.com/spf13/cobra"

	"stixgate/internal/interfaces/cli/feed"
	"stixgate/internal/interfaces/cli/migrate"
	"stixgate/internal/interfaces/cli/share"
	"stixgate/internal/interfaces/cli/trust"
	"stixgate/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stixgate",
		Short: "StixGate - threat intelligence sharing gateway",
		Long:  `StixGate consumes TAXII feeds, stores STIX objects, and shares them between organizations at trust-resolved anonymization tiers.`,
	}

	rootCmd.AddCommand(
		feed.NewCommand(),
		trust.NewCommand(),
		share.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
