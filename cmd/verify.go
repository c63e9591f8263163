package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fightpulse/migrate-cli/config"
	"github.com/fightpulse/migrate-cli/pkg/migrate"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// Verify command flags.
var (
	verifyArtifacts string
	verifyOutput    string
)

// VerifyCommandDeps holds the dependencies for the verify command.
type VerifyCommandDeps struct {
	LoadConfig  func() (*config.CLIConfig, error)
	ConnectToDB func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error)
}

// DefaultVerifyDeps returns the default dependencies for production use.
func DefaultVerifyDeps() *VerifyCommandDeps {
	return &VerifyCommandDeps{
		LoadConfig:  config.LoadConfig,
		ConnectToDB: connectToDatabase,
	}
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	deps := DefaultVerifyDeps()

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check mapping artifacts against the target database",
		Long: `Cross-check the persisted mapping artifacts against the current
state of the target database.

The check is read-only. It reports:
  - mapped target ids that no longer exist in the store
  - fights referencing a missing event or fighter
  - natural keys still duplicated (work for 'fpmigrate dedupe')

A missing fight-mapping or user-mapping artifact is fatal: run the
migration first.

Examples:
  fpmigrate verify
  fpmigrate verify --artifacts ./artifacts --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVar(&verifyArtifacts, "artifacts", "", "Mapping artifact directory (default from config)")
	cmd.Flags().StringVarP(&verifyOutput, "output", "o", "", "Output format: text, json")

	return cmd
}

func runVerify(ctx context.Context, deps *VerifyCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if verifyArtifacts != "" {
		cfg.ArtifactDir = verifyArtifacts
	}
	logger := newLogger(cfg)

	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := store.NewRepository(pool, logger)
	verifier := migrate.NewVerifier(repo, logger)

	report, err := verifier.Run(ctx, cfg.ArtifactDir)
	if err != nil {
		return err
	}

	return printOutput(cfg, verifyOutput, report, func() {
		printVerifyReport(report)
	})
}

func printVerifyReport(report *migrate.VerifyReport) {
	fmt.Println("Verification report")
	fmt.Printf("  mapped fights:  %d\n", report.MappedFights)
	fmt.Printf("  mapped users:   %d\n", report.MappedUsers)
	fmt.Printf("  mapped reviews: %d\n", report.MappedReviews)
	if report.Clean() {
		fmt.Println("No inconsistencies found.")
		return
	}
	fmt.Printf("  stale fight mappings:   %d\n", report.StaleFightMappings)
	fmt.Printf("  stale user mappings:    %d\n", report.StaleUserMappings)
	fmt.Printf("  dangling fights:        %d\n", len(report.DanglingFights))
	fmt.Printf("  duplicate fighter keys: %d\n", report.DuplicateFighterKeys)
	fmt.Printf("  duplicate event keys:   %d\n", report.DuplicateEventKeys)
}
