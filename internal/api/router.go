package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/RiskRater/internal/chat"
	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

// RouterOptions carries the HTTP-level settings.
type RouterOptions struct {
	CORSOrigin string
	RateLimit  int
}

func NewRouter(s store.Store, h hermes.Client, sc *scoring.Scorer, relay *chat.Relay, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Instrument)
	r.Use(CORSMiddleware(opts.CORSOrigin))
	if opts.RateLimit > 0 {
		r.Use(RateLimitMiddleware(opts.RateLimit))
	}

	score := NewScoreHandler(sc, h, logger)
	history := NewHistoryHandler(s, h, relay, logger)
	chatH := NewChatHandler(relay, h, logger)

	r.Post("/score", score.Score)
	r.Get("/matrices", score.Matrices)

	r.Get("/history", history.List)
	r.Post("/history/save", history.Save)
	r.Post("/history/clear", history.Clear)

	r.Post("/chat", chatH.Chat)

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// writeJSON answers 500 when v cannot be encoded.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func publish(h hermes.Client, logger *slog.Logger, subject string, data interface{}) {
	if h == nil {
		return
	}
	if err := h.Publish(subject, data); err != nil {
		logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
