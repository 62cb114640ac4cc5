// Package store archives terminal analysis records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	record     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at);
`

// JobStore persists analysis job records. It implements job.Archiver.
type JobStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the schema exists.
func Open(path string, logger *slog.Logger) (*JobStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes per connection; a single connection
	// avoids SQLITE_BUSY under concurrent archiving.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &JobStore{db: db, logger: logger}, nil
}

// Put upserts the full job record, keyed by analysis ID. Re-modeling and
// failure transitions overwrite the previous row.
func (s *JobStore) Put(ctx context.Context, job domain.AnalysisJob) error {
	record, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("serialize job record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, state, created_at, record) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, record = excluded.record`,
		job.ID, string(job.State), job.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"), record,
	)
	if err != nil {
		return fmt.Errorf("upsert job record: %w", err)
	}
	return nil
}

// Get loads one archived job record, failing with domain.ErrJobNotFound for
// unknown IDs.
func (s *JobStore) Get(ctx context.Context, id string) (domain.AnalysisJob, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM analyses WHERE id = ?`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisJob{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("load job record: %w", err)
	}

	var job domain.AnalysisJob
	if err := json.Unmarshal(record, &job); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("decode job record: %w", err)
	}
	return job, nil
}

// List returns archived records, newest first, up to limit.
func (s *JobStore) List(ctx context.Context, limit int) ([]domain.AnalysisJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM analyses ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	defer rows.Close()

	var jobs []domain.AnalysisJob
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		var job domain.AnalysisJob
		if err := json.Unmarshal(record, &job); err != nil {
			s.logger.Warn("skipping undecodable job record", "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *JobStore) Close() error {
	return s.db.Close()
}
