// Package cmd provides CLI commands for the fpmigrate tool.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"github.com/fightpulse/migrate-cli/config"
	"github.com/fightpulse/migrate-cli/credentials"
	"github.com/fightpulse/migrate-cli/pkg/db"
	"github.com/fightpulse/migrate-cli/pkg/logging"
)

// newLogger builds the logger all commands share. Debug mode drops to
// console output at debug level; otherwise structured JSON at info.
func newLogger(cfg *config.CLIConfig) logging.Logger {
	lc := logging.DefaultConfig()
	lc.JSONFormat = !cfg.Debug
	if cfg.Debug {
		lc.Level = logging.LevelDebug
	}
	return logging.NewLogger(lc)
}

// connectToDatabase establishes the target-store connection pool. The
// password comes from FPM_DB_PASSWORD or the OS keyring.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig) (*pgxpool.Pool, error) {
	dbCfg := cfg.Database
	if dbCfg.Password == "" {
		pw, err := credentials.NewStore().GetPassword(dbCfg.User)
		if err == nil {
			dbCfg.Password = pw
		}
		// No stored password is fine for trust-auth dev databases;
		// the connection attempt decides.
	}

	pool, err := db.Connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// printOutput renders v as indented JSON when the output format is
// json, otherwise hands off to the supplied text renderer.
func printOutput(cfg *config.CLIConfig, outputFlag string, v any, text func()) error {
	format := cfg.OutputFormat
	if outputFlag != "" {
		format = config.OutputFormat(outputFlag)
	}
	if format == config.OutputFormatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	text()
	return nil
}

// confirmPrompt asks the operator to confirm a destructive operation.
// A non-interactive stdin refuses: scripted runs must pass --confirm.
func confirmPrompt(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("stdin is not a terminal; use --confirm to skip the prompt")
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
