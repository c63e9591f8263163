package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fightpulse/migrate-cli/config"
	"github.com/fightpulse/migrate-cli/credentials"
)

// NewAuthCommand creates the auth command with its subcommands.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored database password",
		Long: `Manage the database password stored in the system keyring.

The migrate, dedupe, and verify commands read the password for the
configured database user from the keyring. The FPM_DB_PASSWORD
environment variable, when set, takes precedence; scripted runs never
need the keyring.

Examples:
  fpmigrate auth set-password
  fpmigrate auth delete-password`,
	}

	cmd.AddCommand(newAuthSetPasswordCommand())
	cmd.AddCommand(newAuthDeletePasswordCommand())

	return cmd
}

func newAuthSetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-password",
		Short: "Store the database password in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("stdin is not a terminal; set FPM_DB_PASSWORD instead")
			}
			fmt.Printf("Password for database user %q: ", cfg.Database.User)
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			store := credentials.NewStore()
			if err := store.SetPassword(cfg.Database.User, string(pw)); err != nil {
				return err
			}
			fmt.Printf("Password stored in %s.\n", store.Description())
			return nil
		},
	}
}

func newAuthDeletePasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-password",
		Short: "Remove the stored database password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			store := credentials.NewStore()
			if err := store.DeletePassword(cfg.Database.User); err != nil {
				return err
			}
			fmt.Println("Password removed.")
			return nil
		},
	}
}
