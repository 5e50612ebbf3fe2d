// Package share provides the bundle rendering command.
package share

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"stixgate/internal/interfaces/cli"
	"stixgate/internal/shared/constants"
)

var (
	sourceOrgID     uint
	requestingOrgID uint
	limit           int
	offset          int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Render shared intelligence",
	}

	cmd.AddCommand(newRenderCommand())

	return cmd
}

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a source organization's objects for a requesting peer",
		Long: `Render the source organization's stored objects as a STIX bundle
anonymized at the tier the trust resolution yields for the requesting
organization. Fails when the requester has no read access.`,
		RunE:         runRender,
		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&sourceOrgID, "source", 0, "Source organization ID (data owner)")
	cmd.Flags().UintVar(&requestingOrgID, "requester", 0, "Requesting organization ID (data consumer)")
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPageSize, "Maximum number of objects to render")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of objects to skip")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("requester")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	app, err := cli.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	view, err := app.RenderBundle.Execute(cmd.Context(), sourceOrgID, requestingOrgID, limit, offset)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
