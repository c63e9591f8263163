package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fightpulse/migrate-cli/config"
	"github.com/fightpulse/migrate-cli/pkg/db"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/migrate"
	"github.com/fightpulse/migrate-cli/pkg/migrate/events"
	"github.com/fightpulse/migrate-cli/pkg/migrate/observability"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// Migrate command flags.
var (
	migrateDryRun    bool
	migrateLimit     int
	migrateStep      int
	migrateOnly      int
	migrateDataDir   string
	migrateArtifacts string
	migrateOutput    string
)

// MigrateCommandDeps holds the dependencies for the migrate command.
type MigrateCommandDeps struct {
	LoadConfig  func() (*config.CLIConfig, error)
	ConnectToDB func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error)
}

// DefaultMigrateDeps returns the default dependencies for production use.
func DefaultMigrateDeps() *MigrateCommandDeps {
	return &MigrateCommandDeps{
		LoadConfig:  config.LoadConfig,
		ConnectToDB: connectToDatabase,
	}
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	deps := DefaultMigrateDeps()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the legacy-to-normalized migration pipeline",
		Long: `Run the staged migration pipeline against the target database.

Stages run in strict dependency order:
  1 events  2 fighters  3 fights  4 users
  5 ratings  6 tags  7 reviews  8 review-upvotes

Every stage is idempotent: records are looked up by natural key before
creation, so re-running a stage creates nothing new. Mapping artifacts
(fight-mapping.json, user-mapping.json, ...) are written to the
artifact directory and consumed by later stages, which makes resuming
with --step or re-running a single stage with --only safe.

Review and review-upvote failures are logged and do not abort the run;
those stages can be re-run alone afterward. The process exits non-zero
only when a required prerequisite artifact is missing or the database
is unreachable.

Examples:
  # Simulate the full pipeline without writing anything
  fpmigrate migrate --dry-run

  # Full run with explicit directories
  fpmigrate migrate --data ./legacy-export --artifacts ./artifacts

  # Resume from the users stage after a crash
  fpmigrate migrate --step 4

  # Re-run only the tag stage
  fpmigrate migrate --only 6

  # Smoke-test with the first 100 records of each input
  fpmigrate migrate --limit 100 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), deps)
		},
	}

	cmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Simulate the run: identical statistics, no writes")
	cmd.Flags().IntVar(&migrateLimit, "limit", 0, "Process only the first N records of each input file")
	cmd.Flags().IntVar(&migrateStep, "step", 0, "Resume from stage N (1-8)")
	cmd.Flags().IntVar(&migrateOnly, "only", 0, "Run only stage N (1-8)")
	cmd.Flags().StringVar(&migrateDataDir, "data", "", "Legacy export directory (default from config)")
	cmd.Flags().StringVar(&migrateArtifacts, "artifacts", "", "Mapping artifact directory (default from config)")
	cmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Output format: text, json")

	return cmd
}

func runMigrate(ctx context.Context, deps *MigrateCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if migrateDataDir != "" {
		cfg.DataDir = migrateDataDir
	}
	if migrateArtifacts != "" {
		cfg.ArtifactDir = migrateArtifacts
	}
	logger := newLogger(cfg)

	opts := migrate.Options{
		DryRun: migrateDryRun,
		Limit:  migrateLimit,
		Step:   migrateStep,
		Only:   migrateOnly,
		OutDir: cfg.ArtifactDir,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	publisher := newPublisher(ctx, cfg, logger)
	defer publisher.Close()

	repo := store.NewRepository(pool, logger)
	reader := legacy.NewReader(cfg.DataDir)

	registry := prometheus.NewRegistry()
	registry.MustRegister(db.NewPoolStatsCollector(pool, "fpmigrate"))
	metrics := observability.NewMigrationMetrics(registry)

	orch := migrate.NewOrchestrator(repo, reader, logger, metrics, publisher, opts)
	report, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	return printOutput(cfg, migrateOutput, report, func() {
		printRunReport(report)
	})
}

// newPublisher builds the Redis event publisher when configured; a nil
// publisher disables publishing.
func newPublisher(ctx context.Context, cfg *config.CLIConfig, logger logging.Logger) *events.Publisher {
	if !cfg.Events.IsConfigured() {
		return nil
	}
	publisher, err := events.NewPublisherFromConfig(events.PublisherConfig{
		Host: cfg.Events.Host,
		Port: cfg.Events.GetPort(),
		DB:   cfg.Events.DB,
	}, logger)
	if err != nil {
		logger.Warn("event publishing disabled", logging.Err(err))
		return nil
	}
	return publisher
}

func printRunReport(report *migrate.RunReport) {
	mode := "migration"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("Migration report (%s)\n", mode)
	fmt.Printf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Completed: %s\n\n", report.CompletedAt.Format("2006-01-02 15:04:05"))

	for _, st := range report.Stages {
		fmt.Printf("Stage %s\n", st.Stage)
		fmt.Printf("  total:           %d\n", st.Total)
		fmt.Printf("  created:         %d\n", st.Created)
		fmt.Printf("  already existed: %d\n", st.Existed)
		if len(st.Skipped) > 0 {
			reasons := make([]string, 0, len(st.Skipped))
			for reason := range st.Skipped {
				reasons = append(reasons, reason)
			}
			sort.Strings(reasons)
			fmt.Printf("  skipped:         %d\n", st.SkippedTotal())
			for _, reason := range reasons {
				fmt.Printf("    %-14s %d\n", reason+":", st.Skipped[reason])
			}
		}
		if st.Errors > 0 {
			fmt.Printf("  errors:          %d\n", st.Errors)
		}
		if st.FuzzyMatches > 0 {
			fmt.Printf("  fuzzy matches:   %d\n", st.FuzzyMatches)
		}
		if st.Collisions > 0 {
			fmt.Printf("  collisions:      %d\n", st.Collisions)
		}
		fmt.Println()
	}

	if report.FailedStage != "" {
		fmt.Printf("FAILED at stage %s\n", report.FailedStage)
	}
}
