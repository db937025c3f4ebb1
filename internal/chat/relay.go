package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

// DefaultContextSize is how many recent assessments are summarized into each prompt.
const DefaultContextSize = 5

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrNoBackend    = errors.New("chat backend not configured")
)

// Backend sends one prompt to a conversational model and returns its reply.
// Implementations keep conversation memory across calls.
type Backend interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// HistorySource supplies recent assessments for prompt context.
type HistorySource interface {
	ListAssessments(ctx context.Context, filter store.AssessmentFilter) ([]*store.Assessment, error)
}

// Reply is the outcome of one relayed message.
type Reply struct {
	Response string
	Duration time.Duration
}

// Relay forwards user messages to the backend with the saved assessment
// history attached as context.
type Relay struct {
	backend     Backend
	history     HistorySource
	contextSize int
	logger      *slog.Logger
}

func NewRelay(b Backend, h HistorySource, contextSize int, logger *slog.Logger) *Relay {
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	return &Relay{backend: b, history: h, contextSize: contextSize, logger: logger}
}

// Enabled reports whether a backend is wired.
func (r *Relay) Enabled() bool {
	return r != nil && r.backend != nil
}

// Send relays message. A history lookup failure degrades to a prompt without
// context rather than failing the chat.
func (r *Relay) Send(ctx context.Context, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if !r.Enabled() {
		return nil, ErrNoBackend
	}

	summary := noHistorySummary
	if r.history != nil {
		recent, err := r.history.ListAssessments(ctx, store.AssessmentFilter{Limit: r.contextSize})
		if err != nil {
			r.logger.Warn("failed to load history for chat context", "error", err)
		} else {
			summary = SummarizeAssessments(recent)
		}
	}

	start := time.Now()
	resp, err := r.backend.Send(ctx, BuildPrompt(summary, message))
	if err != nil {
		return nil, fmt.Errorf("chat backend: %w", err)
	}
	return &Reply{Response: resp, Duration: time.Since(start)}, nil
}

// Reset starts a new conversation on backends that keep one.
func (r *Relay) Reset() {
	if !r.Enabled() {
		return
	}
	if rb, ok := r.backend.(interface{ Reset() }); ok {
		rb.Reset()
	}
}

const noHistorySummary = "The user has no saved risk assessments yet in their database."

// SummarizeAssessments renders assessments one per line for the model.
func SummarizeAssessments(recent []*store.Assessment) string {
	if len(recent) == 0 {
		return noHistorySummary
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The user's %d most recent risk assessments are:\n", len(recent))
	for _, a := range recent {
		fmt.Fprintf(&b, "- Vuln: %s | Final: %s | Likelihood: %.3f | Impact: %.3f | Date: %s\n",
			a.Name, a.FinalScore, a.Likelihood, a.Impact, a.DateSaved.Format("2006-01-02"))
	}
	return b.String()
}

// SystemPrompt is installed on the model session.
const SystemPrompt = "You are an expert cybersecurity and risk analysis assistant. " +
	"Use the CONTEXT FROM ASSESSMENT HISTORY to answer the user's query if it asks about past data. " +
	"Otherwise, answer generally about risk factors or the OWASP risk rating methodology. Keep answers concise."

// BuildPrompt combines the history summary with the user's query.
func BuildPrompt(summary, message string) string {
	return "--- CONTEXT FROM ASSESSMENT HISTORY ---\n" +
		summary + "\n" +
		"---------------------------------------\n\n" +
		"USER QUERY: " + message
}
