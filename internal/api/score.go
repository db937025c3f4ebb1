package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
)

type ScoreHandler struct {
	scorer *scoring.Scorer
	hermes hermes.Client
	logger *slog.Logger
}

func NewScoreHandler(sc *scoring.Scorer, h hermes.Client, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scorer: sc, hermes: h, logger: logger}
}

// ScoreRequest carries the sixteen factor ratings by name. Ratings may be
// JSON numbers or numeric strings.
type ScoreRequest struct {
	Factors map[string]any      `json:"factors"`
	Weights scoring.WeightFlags `json:"weights"`
	Matrix  string              `json:"matrix,omitempty"`
}

type ScoreResponse struct {
	scoring.ScoreResult
	Chart scoring.ChartSeries `json:"chart"`
}

func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	factors, err := scoring.ParseFactors(req.Factors)
	if err != nil {
		writeScoreError(w, err)
		return
	}
	res, err := h.scorer.Score(factors, req.Weights, req.Matrix)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	scoresComputed.WithLabelValues(string(res.Category)).Inc()
	publish(h.hermes, h.logger, hermes.SubjectScoreComputed, hermes.ScoreComputedEvent{
		FinalScore: string(res.Category),
		Likelihood: res.Likelihood.Average,
		Impact:     res.Impact.Average,
		Matrix:     res.Matrix,
		Weighted:   res.Weighted,
	})

	writeJSON(w, http.StatusOK, ScoreResponse{ScoreResult: res, Chart: res.Chart()})
}

func writeScoreError(w http.ResponseWriter, err error) {
	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid input", "fields": verr.Fields})
	case errors.Is(err, scoring.ErrUnknownMatrix), errors.Is(err, scoring.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

type MatricesResponse struct {
	Default  string               `json:"default"`
	Matrices []scoring.RiskMatrix `json:"matrices"`
}

func (h *ScoreHandler) Matrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MatricesResponse{
		Default:  h.scorer.DefaultMatrix(),
		Matrices: h.scorer.Matrices(),
	})
}
