package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Chat     ChatConfig     `yaml:"chat"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	MetricsPort       int    `yaml:"metrics_port"`
	CORSOrigin        string `yaml:"cors_origin"`
	RateLimit         int    `yaml:"rate_limit"`
	ShutdownTimeoutMs int    `yaml:"shutdown_timeout_ms"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// HermesConfig is the NATS connection. An empty URL disables the event bus.
type HermesConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// ChatConfig configures the Gemini relay. An empty project disables chat.
type ChatConfig struct {
	GeminiProject  string `yaml:"gemini_project"`
	GeminiLocation string `yaml:"gemini_location"`
	ContextSize    int    `yaml:"context_size"`
}

type ScoringConfig struct {
	WeightMultiplier float64               `yaml:"weight_multiplier"`
	DefaultMatrix    string                `yaml:"default_matrix"`
	Matrices         map[string][][]string `yaml:"matrices"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutMs) * time.Millisecond
}

// SlogLevel maps the configured level name, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RiskMatrices builds the configured custom matrices in name order.
func (c *Config) RiskMatrices() ([]scoring.RiskMatrix, error) {
	names := make([]string, 0, len(c.Scoring.Matrices))
	for name := range c.Scoring.Matrices {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]scoring.RiskMatrix, 0, len(names))
	for _, name := range names {
		m, err := scoring.NewRiskMatrix(name, c.Scoring.Matrices[name])
		if err != nil {
			return nil, fmt.Errorf("matrix %q: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Scoring.WeightMultiplier < 1 {
		return fmt.Errorf("scoring.weight_multiplier must be >= 1, got %v", c.Scoring.WeightMultiplier)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              5000,
			MetricsPort:       5001,
			CORSOrigin:        "*",
			RateLimit:         120,
			ShutdownTimeoutMs: 10000,
		},
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLitePath: "risk_history.db",
		},
		Hermes: HermesConfig{
			Queue: "riskrater",
		},
		Chat: ChatConfig{
			GeminiLocation: "us-central1",
			ContextSize:    5,
		},
		Scoring: ScoringConfig{
			WeightMultiplier: scoring.DefaultWeightMultiplier,
			DefaultMatrix:    scoring.StandardMatrixName,
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
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RISKRATER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("RISKRATER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("RISKRATER_CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("RISKRATER_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("RISKRATER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("RISKRATER_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RISKRATER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("RISKRATER_GEMINI_PROJECT"); v != "" {
		cfg.Chat.GeminiProject = v
	}
	if v := os.Getenv("RISKRATER_GEMINI_LOCATION"); v != "" {
		cfg.Chat.GeminiLocation = v
	}
	if v := os.Getenv("RISKRATER_WEIGHT_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.WeightMultiplier = f
		}
	}
	if v := os.Getenv("RISKRATER_DEFAULT_MATRIX"); v != "" {
		cfg.Scoring.DefaultMatrix = v
	}
	if v := os.Getenv("RISKRATER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
