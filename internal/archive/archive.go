// Package archive keeps one Postgres row per acquisition run so operators
// can audit snapshot history and freshness. Archiving is optional; the
// pipeline works without a database.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS snapshot_runs (
	id               UUID PRIMARY KEY,
	generated_at     TIMESTAMPTZ NOT NULL,
	reporting_quarter TEXT NOT NULL,
	content_digest   TEXT NOT NULL,
	document         JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Run is one archived acquisition run.
type Run struct {
	ID               uuid.UUID
	GeneratedAt      time.Time
	ReportingQuarter string
	ContentDigest    string
	Document         []byte
}

// Store writes and reads archived snapshot runs.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the archive table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create snapshot_runs table: %w", err)
	}
	return nil
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshot_runs (id, generated_at, reporting_quarter, content_digest, document)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.GeneratedAt, run.ReportingQuarter, run.ContentDigest, run.Document,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot run: %w", err)
	}
	return nil
}

// Latest returns the most recent run, or nil when the archive is empty.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	var run Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, generated_at, reporting_quarter, content_digest, document
		 FROM snapshot_runs ORDER BY generated_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.GeneratedAt, &run.ReportingQuarter, &run.ContentDigest, &run.Document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest snapshot run: %w", err)
	}
	return &run, nil
}

// Prune deletes runs older than the retention window and returns the count
// removed.
func (s *Store) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM snapshot_runs WHERE created_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(keep.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshot runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
