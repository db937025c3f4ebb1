package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/RiskRater/internal/chat"
	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

type HistoryHandler struct {
	store  store.Store
	hermes hermes.Client
	relay  *chat.Relay
	logger *slog.Logger
}

func NewHistoryHandler(s store.Store, h hermes.Client, relay *chat.Relay, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: s, hermes: h, relay: relay, logger: logger}
}

// HistoryItem is a saved assessment with its table row class.
type HistoryItem struct {
	*store.Assessment
	Class string `json:"class"`
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.AssessmentFilter
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}

	items, err := h.store.ListAssessments(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list assessments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]HistoryItem, 0, len(items))
	for _, a := range items {
		out = append(out, HistoryItem{Assessment: a, Class: scoring.HistoryClass(a.FinalScore)})
	}
	writeJSON(w, http.StatusOK, out)
}

var saveFields = []string{"name", "finalScore", "likelihood", "impact", "weighted"}

const missingFieldsMsg = "Missing required data fields."

func (h *HistoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": missingFieldsMsg})
		return
	}
	for _, f := range saveFields {
		if v, ok := raw[f]; !ok || string(v) == "null" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": missingFieldsMsg})
			return
		}
	}

	a, err := decodeAssessment(raw)
	if err != nil {
		assessmentSaves.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := store.CheckSavePolicy(a); err != nil {
		assessmentSaves.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err := h.store.CreateAssessment(r.Context(), a); err != nil {
		assessmentSaves.WithLabelValues("error").Inc()
		h.logger.Error("failed to save assessment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	assessmentSaves.WithLabelValues("saved").Inc()
	h.logger.Info("assessment saved", "id", a.ID, "name", a.Name, "final_score", a.FinalScore)
	publish(h.hermes, h.logger, hermes.SubjectAssessmentSaved(a.ID.String()), hermes.AssessmentSavedEvent{
		ID:         a.ID.String(),
		Name:       a.Name,
		FinalScore: a.FinalScore,
		Likelihood: a.Likelihood,
		Impact:     a.Impact,
		Weighted:   a.Weighted,
		Source:     "api",
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Assessment saved successfully."})
}

func decodeAssessment(raw map[string]json.RawMessage) (*store.Assessment, error) {
	a := &store.Assessment{}
	if err := json.Unmarshal(raw["name"], &a.Name); err != nil {
		return nil, fmt.Errorf("name must be a string")
	}
	if err := json.Unmarshal(raw["finalScore"], &a.FinalScore); err != nil {
		return nil, fmt.Errorf("finalScore must be a string")
	}
	var err error
	if a.Likelihood, err = flexFloat(raw["likelihood"]); err != nil {
		return nil, fmt.Errorf("likelihood: %w", err)
	}
	if a.Impact, err = flexFloat(raw["impact"]); err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	if a.Weighted, err = flexFlag(raw["weighted"]); err != nil {
		return nil, fmt.Errorf("weighted: %w", err)
	}
	return a, nil
}

// flexFloat accepts a JSON number or a numeric string holding a finite
// value on the factor rating scale.
func flexFloat(v json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, errors.New("must be a number")
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, errors.New("must be a number")
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < scoring.MinRating || f > scoring.MaxRating {
		return 0, fmt.Errorf("must be a finite number between %d and %d", scoring.MinRating, scoring.MaxRating)
	}
	return f, nil
}

// flexFlag accepts an integer or a boolean. Range is left to the save policy.
func flexFlag(v json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return 0, errors.New("must be 0, 1 or a boolean")
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ClearAssessments(r.Context())
	if err != nil {
		h.logger.Error("failed to clear history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.relay.Reset()
	h.logger.Info("history cleared", "deleted", n)
	publish(h.hermes, h.logger, hermes.SubjectHistoryCleared, hermes.HistoryClearedEvent{Deleted: n})
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared successfully."})
}
