// Package trust provides the trust resolution command.
package trust

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"stixgate/internal/interfaces/cli"
)

var (
	sourceOrgID     uint
	requestingOrgID uint
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Inspect trust between organizations",
	}

	cmd.AddCommand(newResolveCommand())

	return cmd
}

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the effective trust for an ordered pair of organizations",
		Long: `Resolve how the source organization's data would be shared with the
requesting organization: the anonymization tier, the access level, and
whether the decision came from a direct relationship, a shared group, or
the fail-closed default.`,
		RunE:         runResolve,
		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&sourceOrgID, "source", 0, "Source organization ID (data owner)")
	cmd.Flags().UintVar(&requestingOrgID, "target", 0, "Requesting organization ID (data consumer)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	app, err := cli.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	decision, err := app.ResolveTrust.Execute(cmd.Context(), sourceOrgID, requestingOrgID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
