package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

var envVars = []string{
	"DEMOCRACY_PORT", "DEMOCRACY_METRICS_PORT", "DEMOCRACY_ADMIN_TOKEN",
	"DEMOCRACY_DATABASE_URL", "DEMOCRACY_HERMES_URL", "DEMOCRACY_REGISTRY_PATH",
	"DEMOCRACY_SUBSET_PATH", "DEMOCRACY_GENERATIONS", "DEMOCRACY_PRIMARY_PARENT_ONLY",
	"DEMOCRACY_SCHEME", "DEMOCRACY_LOG_LEVEL", "DEMOCRACY_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimit != 120 {
		t.Errorf("expected rate limit 120, got %d", cfg.Server.RateLimit)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected no database URL, got %s", cfg.Database.URL)
	}
	if got := cfg.Registry.Generations; len(got) != 3 || got[0] != "CMIP3" || got[2] != "CMIP6" {
		t.Errorf("unexpected generations %v", got)
	}
	if !cfg.Registry.PrimaryParentOnly {
		t.Error("expected primary_parent_only=true by default")
	}
	if !cfg.GenealogyOptions().PrimaryParentOnly {
		t.Error("expected genealogy options to follow registry config")
	}
	scheme, err := cfg.Scheme()
	if err != nil || scheme != weighting.SchemeCode {
		t.Errorf("expected default scheme code, got %q (%v)", scheme, err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.Logger() == nil {
		t.Error("expected a logger")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEMOCRACY_PORT", "9000")
	t.Setenv("DEMOCRACY_METRICS_PORT", "9001")
	t.Setenv("DEMOCRACY_ADMIN_TOKEN", "secret-token")
	t.Setenv("DEMOCRACY_DATABASE_URL", "postgres://localhost/democracy_test")
	t.Setenv("DEMOCRACY_HERMES_URL", "nats://nats:4222")
	t.Setenv("DEMOCRACY_REGISTRY_PATH", "/data/models.csv")
	t.Setenv("DEMOCRACY_SUBSET_PATH", "/data/subset.csv")
	t.Setenv("DEMOCRACY_GENERATIONS", "CMIP5, CMIP6")
	t.Setenv("DEMOCRACY_PRIMARY_PARENT_ONLY", "false")
	t.Setenv("DEMOCRACY_SCHEME", "institute")
	t.Setenv("DEMOCRACY_LOG_LEVEL", "debug")
	t.Setenv("DEMOCRACY_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/democracy_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Registry.Path != "/data/models.csv" || cfg.Registry.SubsetPath != "/data/subset.csv" {
		t.Errorf("unexpected registry paths %q %q", cfg.Registry.Path, cfg.Registry.SubsetPath)
	}
	if got := cfg.Registry.Generations; len(got) != 2 || got[0] != "CMIP5" || got[1] != "CMIP6" {
		t.Errorf("unexpected generations %v", got)
	}
	if cfg.Registry.PrimaryParentOnly {
		t.Error("expected primary_parent_only disabled")
	}
	if cfg.Weighting.DefaultScheme != "institute" {
		t.Errorf("expected scheme institute, got %s", cfg.Weighting.DefaultScheme)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "democracy.yaml")
	data := `
server:
  port: 7000
registry:
  path: models.csv
  generations: [CMIP6]
weighting:
  default_scheme: family
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if len(cfg.Registry.Generations) != 1 || cfg.Registry.Generations[0] != "CMIP6" {
		t.Errorf("unexpected generations %v", cfg.Registry.Generations)
	}
	if !cfg.Registry.PrimaryParentOnly {
		t.Error("expected primary_parent_only default to survive partial file")
	}
	if cfg.Weighting.DefaultScheme != "family" {
		t.Errorf("expected family, got %s", cfg.Weighting.DefaultScheme)
	}
}

func TestLoadRejectsInvalidScheme(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEMOCRACY_SCHEME", "lottery")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid scheme")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
