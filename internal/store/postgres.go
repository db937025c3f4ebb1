package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS assessments (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name        TEXT NOT NULL,
			final_score TEXT NOT NULL,
			likelihood  DOUBLE PRECISION NOT NULL,
			impact      DOUBLE PRECISION NOT NULL,
			weighted    INTEGER NOT NULL,
			date_saved  TIMESTAMPTZ NOT NULL DEFAULT now(),
			seq         BIGSERIAL
		)`)
	if err != nil {
		return fmt.Errorf("create assessments table: %w", err)
	}
	// Tables created before seq existed.
	if _, err := s.pool.Exec(ctx, `ALTER TABLE assessments ADD COLUMN IF NOT EXISTS seq BIGSERIAL`); err != nil {
		return fmt.Errorf("add assessments seq column: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, a *Assessment) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO assessments (name, final_score, likelihood, impact, weighted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date_saved`,
		a.Name, a.FinalScore, a.Likelihood, a.Impact, a.Weighted,
	).Scan(&a.ID, &a.DateSaved)
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	query := `SELECT id, name, final_score, likelihood, impact, weighted, date_saved
		FROM assessments ORDER BY date_saved DESC, seq DESC`
	args := []interface{}{}
	if filter.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a := &Assessment{}
		if err := rows.Scan(&a.ID, &a.Name, &a.FinalScore, &a.Likelihood, &a.Impact, &a.Weighted, &a.DateSaved); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ClearAssessments(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assessments`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
