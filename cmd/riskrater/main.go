package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/RiskRater/internal/api"
	"github.com/MikeSquared-Agency/RiskRater/internal/chat"
	"github.com/MikeSquared-Agency/RiskRater/internal/config"
	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
	"github.com/MikeSquared-Agency/RiskRater/internal/intake"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	// Scorer
	custom, err := cfg.RiskMatrices()
	if err != nil {
		logger.Error("invalid risk matrix", "error", err)
		os.Exit(1)
	}
	matrices, err := scoring.NewMatrixSet(custom...)
	if err != nil {
		logger.Error("invalid risk matrix", "error", err)
		os.Exit(1)
	}
	scorer, err := scoring.NewScorer(matrices, cfg.Scoring.DefaultMatrix, cfg.Scoring.WeightMultiplier, logger)
	if err != nil {
		logger.Error("failed to create scorer", "error", err)
		os.Exit(1)
	}
	logger.Info("scorer ready", "matrices", matrices.Names(), "default", scorer.DefaultMatrix())

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, cfg.Hermes.Queue, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")

			if err := intake.New(scorer, db, hermesClient, logger).Setup(); err != nil {
				logger.Warn("failed to subscribe to assessment requests", "error", err)
			}
		}
	}

	// Chat (optional)
	var backend chat.Backend
	if cfg.Chat.GeminiProject != "" {
		llm, err := chat.NewGeminiClient(ctx, cfg.Chat.GeminiProject, cfg.Chat.GeminiLocation)
		if err != nil {
			logger.Warn("failed to create gemini client, chat disabled", "error", err)
		} else {
			backend = chat.NewSessionBackend(llm)
			logger.Info("chat enabled", "project", cfg.Chat.GeminiProject, "location", cfg.Chat.GeminiLocation)
		}
	}
	relay := chat.NewRelay(backend, db, cfg.Chat.ContextSize, logger)

	// API server
	router := api.NewRouter(db, hermesClient, scorer, relay, api.RouterOptions{
		CORSOrigin: cfg.Server.CORSOrigin,
		RateLimit:  cfg.Server.RateLimit,
	}, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		return store.NewPostgresStore(ctx, cfg.Database.URL)
	}
	return store.NewSQLiteStore(ctx, cfg.Database.SQLitePath)
}
