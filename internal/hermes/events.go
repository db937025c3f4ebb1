package hermes

import "github.com/MikeSquared-Agency/RiskRater/internal/scoring"

// AssessmentRequestEvent asks the service to score and save an assessment.
// Factors may be numbers or numeric strings.
type AssessmentRequestEvent struct {
	RequestID string              `json:"request_id,omitempty"`
	Name      string              `json:"name"`
	Factors   map[string]any      `json:"factors"`
	Weights   scoring.WeightFlags `json:"weights"`
	Matrix    string              `json:"matrix,omitempty"`
	Source    string              `json:"source,omitempty"`
}

type ScoreComputedEvent struct {
	FinalScore string  `json:"final_score"`
	Likelihood float64 `json:"likelihood"`
	Impact     float64 `json:"impact"`
	Matrix     string  `json:"matrix"`
	Weighted   bool    `json:"weighted"`
}

type AssessmentSavedEvent struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	FinalScore string  `json:"final_score"`
	Likelihood float64 `json:"likelihood"`
	Impact     float64 `json:"impact"`
	Weighted   int     `json:"weighted"`
	Source     string  `json:"source,omitempty"`
}

type AssessmentRejectedEvent struct {
	RequestID string            `json:"request_id"`
	Name      string            `json:"name"`
	Reason    string            `json:"reason"`
	Fields    map[string]string `json:"fields,omitempty"`
}

type HistoryClearedEvent struct {
	Deleted int64 `json:"deleted"`
}

type ChatRelayedEvent struct {
	MessageChars  int   `json:"message_chars"`
	ResponseChars int   `json:"response_chars"`
	DurationMs    int64 `json:"duration_ms"`
}
