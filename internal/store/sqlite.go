package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps history in a local database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessments (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			final_score TEXT NOT NULL,
			likelihood  REAL NOT NULL,
			impact      REAL NOT NULL,
			weighted    INTEGER NOT NULL,
			date_saved  TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create assessments table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, a *Assessment) error {
	a.ID = uuid.New()
	a.DateSaved = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, name, final_score, likelihood, impact, weighted, date_saved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Name, a.FinalScore, a.Likelihood, a.Impact, a.Weighted, a.DateSaved,
	)
	return err
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	query := `SELECT id, name, final_score, likelihood, impact, weighted, date_saved
		FROM assessments ORDER BY date_saved DESC, rowid DESC`
	args := []interface{}{}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a := &Assessment{}
		var id string
		if err := rows.Scan(&id, &a.Name, &a.FinalScore, &a.Likelihood, &a.Impact, &a.Weighted, &a.DateSaved); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("assessment id %q: %w", id, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ClearAssessments(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
