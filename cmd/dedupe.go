package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fightpulse/migrate-cli/config"
	"github.com/fightpulse/migrate-cli/pkg/dedupe"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// Dedupe command flags.
var (
	dedupeDryRun  bool
	dedupeConfirm bool
	dedupeOutput  string
)

// DedupeCommandDeps holds the dependencies for the dedupe command.
type DedupeCommandDeps struct {
	LoadConfig  func() (*config.CLIConfig, error)
	ConnectToDB func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error)
}

// DefaultDedupeDeps returns the default dependencies for production use.
func DefaultDedupeDeps() *DedupeCommandDeps {
	return &DedupeCommandDeps{
		LoadConfig:  config.LoadConfig,
		ConnectToDB: connectToDatabase,
	}
}

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand() *cobra.Command {
	deps := DefaultDedupeDeps()

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Repair duplicate records in the target database",
		Long: `Find and repair duplicate records created before the target schema
gained its uniqueness constraints.

The pass runs in three ordered sub-passes:
  1. fighters grouped by normalized (firstName, lastName)
  2. events grouped by normalized (name, date)
  3. fights grouped by (eventId, fighter1Id, fighter2Id)

Within each group the earliest-created record is kept as canonical,
fight foreign keys referencing the duplicates are rewritten to the
canonical id, and the duplicates are deleted. Running the pass twice
finds nothing on the second run.

Deletion prompts for confirmation unless --confirm or --dry-run is set.

Examples:
  # See what would be repaired
  fpmigrate dedupe --dry-run

  # Repair, answering the confirmation prompt interactively
  fpmigrate dedupe

  # Repair unattended (cron, CI)
  fpmigrate dedupe --confirm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(cmd.Context(), deps)
		},
	}

	cmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "Report duplicates without modifying anything")
	cmd.Flags().BoolVar(&dedupeConfirm, "confirm", false, "Skip the interactive confirmation prompt")
	cmd.Flags().StringVarP(&dedupeOutput, "output", "o", "", "Output format: text, json")

	return cmd
}

func runDedupe(ctx context.Context, deps *DedupeCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := store.NewRepository(pool, logger)

	if !dedupeDryRun && !dedupeConfirm {
		ok, err := confirmPrompt("Deduplication deletes records. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pass := dedupe.NewPass(repo, logger, dedupeDryRun)
	report, err := pass.Run(ctx)
	if err != nil {
		return err
	}

	return printOutput(cfg, dedupeOutput, report, func() {
		printDedupeReport(report)
	})
}

func printDedupeReport(report *dedupe.Report) {
	if report.DryRun {
		fmt.Println("Deduplication report (dry-run)")
	} else {
		fmt.Println("Deduplication report")
	}
	fmt.Printf("  duplicate fighters: %d\n", report.DuplicateFighters)
	fmt.Printf("  duplicate events:   %d\n", report.DuplicateEvents)
	fmt.Printf("  duplicate fights:   %d\n", report.DuplicateFights)
	fmt.Printf("  rewritten fights:   %d\n", report.RewrittenFights)
	if report.Errors > 0 {
		fmt.Printf("  errors:             %d\n", report.Errors)
	}
	if !report.Changed() {
		fmt.Println("Nothing to repair.")
	}
}
