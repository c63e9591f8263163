// Package config provides CLI configuration management for the
// fpmigrate command-line tool. It supports loading configuration from
// YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fightpulse/migrate-cli/pkg/db"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
)

// Default configuration values.
const (
	DefaultDataDir      = "./legacy-export"
	DefaultArtifactDir  = "./artifacts"
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".fpmigrate"
	DefaultConfigFile   = "config.yaml"
)

// EventsConfig holds the optional Redis event-publishing settings. A
// nil EventsConfig disables publishing entirely.
type EventsConfig struct {
	// Host is the Redis server hostname.
	Host string `yaml:"host"`

	// Port is the Redis server port (default: 6379).
	Port int `yaml:"port,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty"`
}

// IsConfigured returns true if event publishing is configured.
func (c *EventsConfig) IsConfigured() bool {
	return c != nil && c.Host != ""
}

// GetPort returns the Redis port, defaulting to 6379.
func (c *EventsConfig) GetPort() int {
	if c == nil || c.Port == 0 {
		return 6379
	}
	return c.Port
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// Database holds the target-store connection settings. The
	// password never comes from this file; it is resolved from the OS
	// keyring or the FPM_DB_PASSWORD environment variable.
	Database *db.Config `yaml:"database"`

	// DataDir is the directory holding the legacy export artifacts.
	DataDir string `yaml:"data_dir"`

	// ArtifactDir is where mapping artifacts are written and read.
	ArtifactDir string `yaml:"artifact_dir"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Events holds the optional Redis event-publishing settings.
	Events *EventsConfig `yaml:"events,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Database:     db.DefaultConfig(),
		DataDir:      DefaultDataDir,
		ArtifactDir:  DefaultArtifactDir,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $FPM_CONFIG_DIR if set, otherwise ~/.fpmigrate
func ConfigDir() (string, error) {
	if dir := os.Getenv("FPM_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment
// variables. Configuration is loaded in this order (later sources
// override earlier):
// 1. Default values
// 2. Config file (~/.fpmigrate/config.yaml or $FPM_CONFIG_DIR/config.yaml)
// 3. Environment variables (FPM_DB_*, FPM_DATA_DIR, FPM_ARTIFACT_DIR, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	type configFile struct {
		Database     *db.Config    `yaml:"database"`
		DataDir      string        `yaml:"data_dir"`
		ArtifactDir  string        `yaml:"artifact_dir"`
		OutputFormat OutputFormat  `yaml:"output_format"`
		Debug        bool          `yaml:"debug"`
		Events       *EventsConfig `yaml:"events"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.Database != nil {
		overlayDB(cfg.Database, fileCfg.Database)
	}
	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if fileCfg.ArtifactDir != "" {
		cfg.ArtifactDir = fileCfg.ArtifactDir
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.Events != nil {
		cfg.Events = fileCfg.Events
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

func overlayDB(dst *db.Config, src *db.Config) {
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.Database != "" {
		dst.Database = src.Database
	}
	if src.User != "" {
		dst.User = src.User
	}
	if src.SSLMode != "" {
		dst.SSLMode = src.SSLMode
	}
	if src.MaxConns != 0 {
		dst.MaxConns = src.MaxConns
	}
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	cfg.Database = db.ConfigFromEnv(cfg.Database)

	if v := os.Getenv("FPM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("FPM_ARTIFACT_DIR"); v != "" {
		cfg.ArtifactDir = v
	}

	if v := os.Getenv("FPM_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("FPM_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	loadEventsFromEnv(cfg)
}

// loadEventsFromEnv overlays Redis event-publishing env vars.
func loadEventsFromEnv(cfg *CLIConfig) {
	host := os.Getenv("FPM_REDIS_HOST")
	if host == "" {
		return
	}

	if cfg.Events == nil {
		cfg.Events = &EventsConfig{}
	}
	cfg.Events.Host = host

	if v := os.Getenv("FPM_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Events.Port = port
		}
	}
	if v := os.Getenv("FPM_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Events.DB = n
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.ArtifactDir == "" {
		return fmt.Errorf("artifact_dir is required")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text or json)", c.OutputFormat)
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
