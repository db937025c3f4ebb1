package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	scoresComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskrater_scores_total",
			Help: "Risk scores computed, by final category.",
		},
		[]string{"category"},
	)
	assessmentSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskrater_assessment_saves_total",
			Help: "Assessment save attempts, by outcome.",
		},
		[]string{"outcome"},
	)
	chatRelays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskrater_chat_relays_total",
			Help: "Chat messages relayed to the model, by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskrater_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(scoresComputed, assessmentSaves, chatRelays, requestDuration)
}

// Instrument records request latency by chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
