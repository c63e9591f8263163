package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points the config loader at a temp dir and clears the env
// vars the loader reads, so tests cannot see a developer's real
// ~/.fpmigrate or environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FPM_CONFIG_DIR", dir)
	for _, v := range []string{
		"FPM_DB_HOST", "FPM_DB_PORT", "FPM_DB_NAME", "FPM_DB_USER",
		"FPM_DB_PASSWORD", "FPM_DB_SSLMODE",
		"FPM_DATA_DIR", "FPM_ARTIFACT_DIR", "FPM_OUTPUT_FORMAT",
		"FPM_DEBUG", "FPM_REDIS_HOST", "FPM_REDIS_PORT", "FPM_REDIS_DB",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.ArtifactDir != DefaultArtifactDir {
		t.Errorf("ArtifactDir = %q, want %q", cfg.ArtifactDir, DefaultArtifactDir)
	}
	if cfg.OutputFormat != OutputFormatText {
		t.Errorf("OutputFormat = %q, want text", cfg.OutputFormat)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Events.IsConfigured() {
		t.Error("events should be unconfigured by default")
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := isolate(t)

	content := `database:
  host: db.internal
  port: 5433
data_dir: /srv/legacy
output_format: json
events:
  host: redis.internal
  db: 2
`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("database = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	// Fields the file omits keep their defaults.
	if cfg.Database.Database != "fightpulse" {
		t.Errorf("Database = %q, want default", cfg.Database.Database)
	}
	if cfg.DataDir != "/srv/legacy" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.ArtifactDir != DefaultArtifactDir {
		t.Errorf("ArtifactDir = %q, want default", cfg.ArtifactDir)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %q", cfg.OutputFormat)
	}
	if !cfg.Events.IsConfigured() || cfg.Events.Host != "redis.internal" {
		t.Errorf("Events = %+v", cfg.Events)
	}
	if cfg.Events.GetPort() != 6379 {
		t.Errorf("GetPort = %d, want default 6379", cfg.Events.GetPort())
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := isolate(t)

	content := "data_dir: /srv/from-file\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FPM_DATA_DIR", "/srv/from-env")
	t.Setenv("FPM_DB_HOST", "env-host")
	t.Setenv("FPM_DB_PASSWORD", "hunter2")
	t.Setenv("FPM_OUTPUT_FORMAT", "json")
	t.Setenv("FPM_DEBUG", "true")
	t.Setenv("FPM_REDIS_HOST", "redis-env")
	t.Setenv("FPM_REDIS_PORT", "6380")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataDir != "/srv/from-env" {
		t.Errorf("DataDir = %q, env must win over file", cfg.DataDir)
	}
	if cfg.Database.Host != "env-host" || cfg.Database.Password != "hunter2" {
		t.Errorf("database = %s password %q", cfg.Database.Host, cfg.Database.Password)
	}
	if !cfg.Debug {
		t.Error("Debug should be set from FPM_DEBUG")
	}
	if cfg.Events.Host != "redis-env" || cfg.Events.GetPort() != 6380 {
		t.Errorf("Events = %+v", cfg.Events)
	}
}

func TestLoadConfigRejectsBadOutputFormat(t *testing.T) {
	isolate(t)
	t.Setenv("FPM_OUTPUT_FORMAT", "xml")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected validation error for output format xml")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.DataDir = "/srv/legacy"
	cfg.Database.Password = "never-on-disk"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config perm = %o, want 0600", perm)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("config file empty")
	}
	for _, secret := range []string{"never-on-disk", "password"} {
		if strings.Contains(strings.ToLower(string(data)), secret) {
			t.Errorf("config file must not contain %q", secret)
		}
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig after save: %v", err)
	}
	if loaded.DataDir != "/srv/legacy" {
		t.Errorf("DataDir = %q after round trip", loaded.DataDir)
	}
	if loaded.Database.Password != "" {
		t.Error("password must not survive the round trip")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~/data", filepath.Join(home, "data")},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventsConfigNilReceivers(t *testing.T) {
	var ec *EventsConfig
	if ec.IsConfigured() {
		t.Error("nil EventsConfig must not be configured")
	}
	if ec.GetPort() != 6379 {
		t.Errorf("nil GetPort = %d, want 6379", ec.GetPort())
	}
}
