//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE assessments")
		s.Close()
	})

	return s
}

func TestPostgresCreateAndList(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	a := &Assessment{
		Name:       "Integration SQLi",
		FinalScore: "High",
		Likelihood: 6.125,
		Impact:     4.5,
		Weighted:   1,
	}
	if err := s.CreateAssessment(ctx, a); err != nil {
		t.Fatalf("CreateAssessment failed: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Fatal("expected non-nil assessment ID after create")
	}
	if a.DateSaved.IsZero() {
		t.Fatal("expected DateSaved to be set")
	}

	b := &Assessment{Name: "Integration XSS", FinalScore: "Medium", Likelihood: 4, Impact: 3}
	if err := s.CreateAssessment(ctx, b); err != nil {
		t.Fatalf("CreateAssessment failed: %v", err)
	}

	got, err := s.ListAssessments(ctx, AssessmentFilter{})
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assessments, got %d", len(got))
	}
	if got[0].ID != b.ID {
		t.Errorf("expected newest assessment first, got %s", got[0].Name)
	}
	if got[1].Likelihood != 6.125 || got[1].Weighted != 1 {
		t.Errorf("unexpected round-trip values: %+v", got[1])
	}

	limited, err := s.ListAssessments(ctx, AssessmentFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 assessment with limit, got %d", len(limited))
	}
}

func TestPostgresListTieBreaksOnInsertOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	saved := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	names := []string{"first", "second", "third", "fourth", "fifth"}
	for _, name := range names {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO assessments (id, name, final_score, likelihood, impact, weighted, date_saved)
			VALUES ($1, $2, 'Low', 1, 1, 0, $3)`,
			uuid.New(), name, saved)
		if err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	got, err := s.ListAssessments(ctx, AssessmentFilter{})
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("expected %d assessments, got %d", len(names), len(got))
	}
	for i, a := range got {
		want := names[len(names)-1-i]
		if a.Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, a.Name)
		}
	}

	limited, err := s.ListAssessments(ctx, AssessmentFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Name != "fifth" {
		t.Errorf("expected the last inserted row under a limit, got %+v", limited)
	}
}

func TestPostgresClear(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := s.CreateAssessment(ctx, &Assessment{Name: name, FinalScore: "Low"}); err != nil {
			t.Fatalf("CreateAssessment failed: %v", err)
		}
	}

	n, err := s.ClearAssessments(ctx)
	if err != nil {
		t.Fatalf("ClearAssessments failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted, got %d", n)
	}

	got, err := s.ListAssessments(ctx, AssessmentFilter{})
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history, got %d", len(got))
	}
}
