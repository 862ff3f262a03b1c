package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Hermes    HermesConfig    `yaml:"hermes"`
	Registry  RegistryConfig  `yaml:"registry"`
	Weighting WeightingConfig `yaml:"weighting"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type RegistryConfig struct {
	Path              string   `yaml:"path"`
	SubsetPath        string   `yaml:"subset_path"`
	Generations       []string `yaml:"generations"`
	PrimaryParentOnly bool     `yaml:"primary_parent_only"`
}

type WeightingConfig struct {
	DefaultScheme string `yaml:"default_scheme"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GenealogyOptions maps the registry section onto tree-building options.
func (c *Config) GenealogyOptions() genealogy.Options {
	return genealogy.Options{PrimaryParentOnly: c.Registry.PrimaryParentOnly}
}

// Scheme returns the parsed default scheme.
func (c *Config) Scheme() (weighting.Scheme, error) {
	return weighting.ParseScheme(c.Weighting.DefaultScheme)
}

func (c *Config) Validate() error {
	if _, err := c.Scheme(); err != nil {
		return fmt.Errorf("weighting.default_scheme: %w", err)
	}
	if len(c.Registry.Generations) == 0 {
		return fmt.Errorf("registry.generations must not be empty")
	}
	return nil
}

// Logger builds the process logger from the logging section.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Registry: RegistryConfig{
			Generations:       append([]string(nil), registry.DefaultGenerations...),
			PrimaryParentOnly: true,
		},
		Weighting: WeightingConfig{
			DefaultScheme: string(weighting.SchemeCode),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DEMOCRACY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DEMOCRACY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("DEMOCRACY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("DEMOCRACY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DEMOCRACY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("DEMOCRACY_REGISTRY_PATH"); v != "" {
		cfg.Registry.Path = v
	}
	if v := os.Getenv("DEMOCRACY_SUBSET_PATH"); v != "" {
		cfg.Registry.SubsetPath = v
	}
	if v := os.Getenv("DEMOCRACY_GENERATIONS"); v != "" {
		cfg.Registry.Generations = registry.SplitList(v)
	}
	if v := os.Getenv("DEMOCRACY_PRIMARY_PARENT_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Registry.PrimaryParentOnly = b
		}
	}
	if v := os.Getenv("DEMOCRACY_SCHEME"); v != "" {
		cfg.Weighting.DefaultScheme = v
	}
	if v := os.Getenv("DEMOCRACY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DEMOCRACY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
