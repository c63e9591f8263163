// Package main provides the fpmigrate CLI entry point.
// fpmigrate migrates the legacy FightPulse JSON export into the
// normalized PostgreSQL schema.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fightpulse/migrate-cli/cmd"
	"github.com/fightpulse/migrate-cli/pkg/buildinfo"
)

// Global flags.
var (
	debug        bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fpmigrate",
	Short: "FightPulse legacy data migration tool",
	Long: `fpmigrate moves the legacy FightPulse JSON export into the normalized
PostgreSQL schema.

The migration runs as a staged pipeline: events and fighters first, then
fights reconciled against the live schema, then users, ratings, tags,
reviews, and review upvotes. Every stage is idempotent — existing target
rows are matched, not duplicated — so interrupted runs can simply be
re-run.

COMMON WORKFLOWS:
  Preview a run:    fpmigrate migrate --dry-run
  Full migration:   fpmigrate migrate
  Resume mid-way:   fpmigrate migrate --step 5
  One stage only:   fpmigrate migrate --only 7
  Clean up:         fpmigrate dedupe --dry-run  →  fpmigrate dedupe
  Check results:    fpmigrate verify

DISCOVERY:
  fpmigrate <command> --help   Flags and examples for any command
  fpmigrate verify             Cross-check mappings against the target
  fpmigrate version            Build information`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Global flags are applied through the environment so every
		// command picks them up during config loading.
		if debug {
			os.Setenv("FPM_DEBUG", "true")
		}
		if outputFormat != "" {
			os.Setenv("FPM_OUTPUT_FORMAT", outputFormat)
		}
		return nil
	},
}

// Version command flags.
var versionOutputJSON bool

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of fpmigrate.

Examples:
  fpmigrate version
  fpmigrate version --json`,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get()

		if versionOutputJSON {
			enc := json.NewEncoder(c.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		out := c.OutOrStdout()
		fmt.Fprintf(out, "fpmigrate version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json")

	versionCmd.Flags().BoolVar(&versionOutputJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(cmd.NewMigrateCommand())
	rootCmd.AddCommand(cmd.NewDedupeCommand())
	rootCmd.AddCommand(cmd.NewVerifyCommand())
	rootCmd.AddCommand(cmd.NewAuthCommand())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Local overrides for development; missing file is fine.
	_ = godotenv.Load()

	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
