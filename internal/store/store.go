package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Assessment is one saved risk rating.
type Assessment struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	FinalScore string    `json:"final_score"`
	Likelihood float64   `json:"likelihood"`
	Impact     float64   `json:"impact"`
	Weighted   int       `json:"weighted"`
	DateSaved  time.Time `json:"date_saved"`
}

// AssessmentFilter narrows ListAssessments. Limit <= 0 returns everything.
type AssessmentFilter struct {
	Limit int
}

// Store persists assessment history. Assessments are listed newest first.
type Store interface {
	CreateAssessment(ctx context.Context, a *Assessment) error
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error)
	ClearAssessments(ctx context.Context) (int64, error)
	Close() error
}

// ErrRejected marks an assessment that fails the save policy.
var ErrRejected = errors.New("assessment rejected")

// CheckSavePolicy applies the rules for keeping an assessment: it must be named
// and carry a computed, non-Note final score.
func CheckSavePolicy(a *Assessment) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: vulnerability name required", ErrRejected)
	}
	switch strings.TrimSpace(a.FinalScore) {
	case "", "0":
		return fmt.Errorf("%w: no calculation to save", ErrRejected)
	case "Note":
		return fmt.Errorf("%w: Note ratings are not saved", ErrRejected)
	}
	if a.Weighted != 0 && a.Weighted != 1 {
		return fmt.Errorf("%w: weighted must be 0 or 1", ErrRejected)
	}
	return nil
}
