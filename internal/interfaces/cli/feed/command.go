// Package feed provides the feed management commands: manual sync and
// status inspection.
package feed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stixgate/internal/application/feed/usecases"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/interfaces/cli"
)

var (
	feedID uint
	dryRun bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage TAXII feed consumption",
	}

	cmd.AddCommand(
		newSyncCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Poll feeds now",
		Long: `Poll one feed (--feed-id) or every active feed immediately, regardless
of schedule. Exit code 0 means all polls succeeded, 1 means at least one
poll failed or was partial, 2 means the arguments were invalid.`,
		RunE:         runSync,
		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&feedID, "feed-id", 0, "Poll a single feed by ID")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Retrieve and validate objects without persisting anything")

	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Show feed scheduling state and latest poll outcomes",
		RunE:         runStatus,
		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&feedID, "feed-id", 0, "Show a single feed by ID")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := validateSyncFlags(feedID, dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	app, err := cli.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	var results []*usecases.PollResult
	if feedID != 0 {
		result, err := app.PollFeed.Execute(ctx, feedID, dryRun)
		if err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}
		results = append(results, result)
	} else {
		report, err := app.SyncAll.Execute(ctx, false)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		results = report.Results
	}

	printResults(results)
	os.Exit(exitCode(results))
	return nil
}

func validateSyncFlags(feedID uint, dryRun bool) error {
	if dryRun && feedID == 0 {
		return fmt.Errorf("--dry-run requires --feed-id")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := cli.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	statuses, err := app.FeedStatus.Execute(cmd.Context(), feedID)
	if err != nil {
		return fmt.Errorf("failed to load feed status: %w", err)
	}

	out, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type syncOutput struct {
	FeedID           uint   `json:"feed_id"`
	FeedName         string `json:"feed_name"`
	Skipped          bool   `json:"skipped,omitempty"`
	DryRun           bool   `json:"dry_run,omitempty"`
	Status           string `json:"status,omitempty"`
	ObjectsRetrieved int    `json:"objects_retrieved"`
	ObjectsProcessed int    `json:"objects_processed"`
	ObjectsFailed    int    `json:"objects_failed"`
	ErrorMessage     string `json:"error_message,omitempty"`
	Duration         string `json:"duration"`
}

func printResults(results []*usecases.PollResult) {
	outputs := make([]syncOutput, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, syncOutput{
			FeedID:           r.FeedID,
			FeedName:         r.FeedName,
			Skipped:          r.Skipped,
			DryRun:           r.DryRun,
			Status:           r.Status.String(),
			ObjectsRetrieved: r.ObjectsRetrieved,
			ObjectsProcessed: r.ObjectsProcessed,
			ObjectsFailed:    r.ObjectsFailed,
			ErrorMessage:     r.ErrorMessage,
			Duration:         r.Duration.String(),
		})
	}

	out, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode results: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

// exitCode maps poll outcomes to the command's exit status: any failed or
// partial poll yields 1. Exit 2 is reserved for invalid arguments.
func exitCode(results []*usecases.PollResult) int {
	for _, r := range results {
		if r.Skipped {
			continue
		}
		if r.Status == vo.StatusFailure || r.Status == vo.StatusPartial {
			return 1
		}
	}
	return 0
}
