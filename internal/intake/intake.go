// Package intake scores and saves assessments submitted over the event bus.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

const defaultSource = "nats"

type Intake struct {
	scorer *scoring.Scorer
	store  store.Store
	hermes hermes.Client
	logger *slog.Logger
}

func New(sc *scoring.Scorer, s store.Store, h hermes.Client, logger *slog.Logger) *Intake {
	return &Intake{scorer: sc, store: s, hermes: h, logger: logger}
}

// Setup subscribes to assessment requests. It is a no-op without a bus.
func (in *Intake) Setup() error {
	if in.hermes == nil {
		return nil
	}
	return in.hermes.Subscribe(hermes.SubjectAssessmentRequest, func(_ string, data []byte) {
		if _, err := in.Handle(context.Background(), data); err != nil {
			in.logger.Warn("assessment request not saved", "error", err)
		}
	})
}

// Handle processes one request payload. Every outcome other than a malformed
// payload is answered with a saved or rejected event.
func (in *Intake) Handle(ctx context.Context, data []byte) (*store.Assessment, error) {
	var req hermes.AssessmentRequestEvent
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode assessment request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.Source == "" {
		req.Source = defaultSource
	}

	factors, err := scoring.ParseFactors(req.Factors)
	if err != nil {
		in.reject(req, err)
		return nil, err
	}
	res, err := in.scorer.Score(factors, req.Weights, req.Matrix)
	if err != nil {
		in.reject(req, err)
		return nil, err
	}

	a := &store.Assessment{
		Name:       req.Name,
		FinalScore: string(res.Category),
		Likelihood: res.Likelihood.Average,
		Impact:     res.Impact.Average,
	}
	if res.Weighted {
		a.Weighted = 1
	}
	if err := store.CheckSavePolicy(a); err != nil {
		in.reject(req, err)
		return nil, err
	}
	if err := in.store.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	in.logger.Info("assessment saved from event", "id", a.ID, "name", a.Name, "final_score", a.FinalScore, "source", req.Source)
	in.publish(hermes.SubjectAssessmentSaved(a.ID.String()), hermes.AssessmentSavedEvent{
		ID:         a.ID.String(),
		Name:       a.Name,
		FinalScore: a.FinalScore,
		Likelihood: a.Likelihood,
		Impact:     a.Impact,
		Weighted:   a.Weighted,
		Source:     req.Source,
	})
	return a, nil
}

func (in *Intake) reject(req hermes.AssessmentRequestEvent, err error) {
	evt := hermes.AssessmentRejectedEvent{
		RequestID: req.RequestID,
		Name:      req.Name,
		Reason:    err.Error(),
	}
	var verr *scoring.ValidationError
	if errors.As(err, &verr) {
		evt.Fields = verr.Fields
	}
	in.logger.Info("assessment request rejected", "request_id", req.RequestID, "reason", evt.Reason)
	in.publish(hermes.SubjectAssessmentRejected(req.RequestID), evt)
}

func (in *Intake) publish(subject string, data interface{}) {
	if in.hermes == nil {
		return
	}
	if err := in.hermes.Publish(subject, data); err != nil {
		in.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
