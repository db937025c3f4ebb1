package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"RISKRATER_PORT", "RISKRATER_METRICS_PORT", "RISKRATER_CORS_ORIGIN",
	"RISKRATER_DATABASE_DRIVER", "RISKRATER_DATABASE_URL", "RISKRATER_SQLITE_PATH",
	"RISKRATER_HERMES_URL", "RISKRATER_GEMINI_PROJECT", "RISKRATER_GEMINI_LOCATION",
	"RISKRATER_WEIGHT_MULTIPLIER", "RISKRATER_DEFAULT_MATRIX", "RISKRATER_LOG_LEVEL",
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

	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 5001 {
		t.Errorf("expected metrics port 5001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.CORSOrigin != "*" {
		t.Errorf("expected CORS origin '*', got %q", cfg.Server.CORSOrigin)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.SQLitePath != "risk_history.db" {
		t.Errorf("expected sqlite at risk_history.db, got %+v", cfg.Database)
	}
	if cfg.Hermes.URL != "" {
		t.Errorf("expected event bus disabled by default, got %q", cfg.Hermes.URL)
	}
	if cfg.Chat.GeminiProject != "" || cfg.Chat.GeminiLocation != "us-central1" || cfg.Chat.ContextSize != 5 {
		t.Errorf("unexpected chat defaults %+v", cfg.Chat)
	}
	if cfg.Scoring.WeightMultiplier != 1.5 {
		t.Errorf("expected multiplier 1.5, got %v", cfg.Scoring.WeightMultiplier)
	}
	if cfg.Scoring.DefaultMatrix != "standard" {
		t.Errorf("expected standard matrix, got %q", cfg.Scoring.DefaultMatrix)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.SlogLevel())
	}
	if cfg.ShutdownTimeout() != 10*time.Second {
		t.Errorf("expected ShutdownTimeout 10s, got %v", cfg.ShutdownTimeout())
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RISKRATER_PORT", "9000")
	t.Setenv("RISKRATER_METRICS_PORT", "9001")
	t.Setenv("RISKRATER_CORS_ORIGIN", "https://risk.example.com")
	t.Setenv("RISKRATER_DATABASE_DRIVER", "Postgres")
	t.Setenv("RISKRATER_DATABASE_URL", "postgres://localhost/riskrater_test")
	t.Setenv("RISKRATER_HERMES_URL", "nats://nats:4222")
	t.Setenv("RISKRATER_GEMINI_PROJECT", "sec-tools")
	t.Setenv("RISKRATER_GEMINI_LOCATION", "europe-west4")
	t.Setenv("RISKRATER_WEIGHT_MULTIPLIER", "2")
	t.Setenv("RISKRATER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.MetricsPort != 9001 {
		t.Errorf("unexpected ports %d/%d", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Server.CORSOrigin != "https://risk.example.com" {
		t.Errorf("unexpected CORS origin %q", cfg.Server.CORSOrigin)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.URL != "postgres://localhost/riskrater_test" {
		t.Errorf("expected database URL, got %q", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got %q", cfg.Hermes.URL)
	}
	if cfg.Chat.GeminiProject != "sec-tools" || cfg.Chat.GeminiLocation != "europe-west4" {
		t.Errorf("unexpected chat config %+v", cfg.Chat)
	}
	if cfg.Scoring.WeightMultiplier != 2 {
		t.Errorf("expected multiplier 2, got %v", cfg.Scoring.WeightMultiplier)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "riskrater.yaml")
	data := `
server:
  port: 7000
database:
  sqlite_path: /var/lib/riskrater/history.db
scoring:
  default_matrix: strict
  matrices:
    strict:
      - [High, Critical, Critical]
      - [Medium, High, Critical]
      - [Low, Medium, High]
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
	if cfg.Server.MetricsPort != 5001 {
		t.Errorf("file should not reset unrelated defaults, got metrics port %d", cfg.Server.MetricsPort)
	}
	if cfg.Database.SQLitePath != "/var/lib/riskrater/history.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Database.SQLitePath)
	}

	ms, err := cfg.RiskMatrices()
	if err != nil {
		t.Fatalf("RiskMatrices: %v", err)
	}
	if len(ms) != 1 || ms[0].Name != "strict" {
		t.Fatalf("expected one strict matrix, got %+v", ms)
	}
	if ms[0].Lookup(2, 0) != "Low" {
		t.Errorf("expected Low at bottom-left, got %q", ms[0].Lookup(2, 0))
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":     {"RISKRATER_DATABASE_DRIVER": "mysql"},
		"postgres no url":    {"RISKRATER_DATABASE_DRIVER": "postgres"},
		"multiplier below 1": {"RISKRATER_WEIGHT_MULTIPLIER": "0.5"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRiskMatricesRejectsBadShape(t *testing.T) {
	cfg := &Config{Scoring: ScoringConfig{Matrices: map[string][][]string{
		"short": {{"Low", "Low", "Low"}},
	}}}
	if _, err := cfg.RiskMatrices(); err == nil {
		t.Error("expected error for a one-row matrix")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
