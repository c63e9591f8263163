// Package credentials stores the target-database password in the
// system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI and scripted environments, set FPM_DB_PASSWORD to bypass the
// keyring entirely.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "fpmigrate"

	// passwordEnvVar bypasses the keyring when set.
	passwordEnvVar = "FPM_DB_PASSWORD"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no password is stored for the
	// requested user.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// Store manages database credential storage.
type Store struct{}

// NewStore creates a credential store backed by the system keyring.
func NewStore() *Store {
	return &Store{}
}

// GetPassword returns the database password for user. The
// FPM_DB_PASSWORD environment variable, when set, wins over the
// keyring so CI never has to touch it.
func (s *Store) GetPassword(user string) (string, error) {
	if pw := os.Getenv(passwordEnvVar); pw != "" {
		return pw, nil
	}

	pw, err := keyring.Get(keyringService, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("user %s: %w", user, ErrNoCredentials)
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return pw, nil
}

// SetPassword stores the database password for user.
func (s *Store) SetPassword(user, password string) error {
	if err := keyring.Set(keyringService, user, password); err != nil {
		return fmt.Errorf("%w: storing password: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// DeletePassword removes the stored password for user. Deleting a
// password that was never stored is not an error.
func (s *Store) DeletePassword(user string) error {
	if err := keyring.Delete(keyringService, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: deleting password: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Description returns a human-readable name for the storage backend.
func (s *Store) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}
