// Package history keeps a local record of quality runs in SQLite so scores
// can be compared across runs of the same dataset.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
)

// Run is one recorded quality run.
type Run struct {
	RunID        string
	Dataset      string
	StartedAt    time.Time
	Duration     time.Duration
	Rows         int
	Cols         int
	Completeness float64
	Uniqueness   float64
	Consistency  float64
	OverallScore float64
	Issues       int
	Checksum     string
}

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed run log.
type Store struct {
	db *sql.DB
}

const createRuns = `CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	dataset       TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	row_count     INTEGER NOT NULL,
	col_count     INTEGER NOT NULL,
	completeness  REAL NOT NULL,
	uniqueness    REAL NOT NULL,
	consistency   REAL NOT NULL,
	overall_score REAL NOT NULL,
	issues        INTEGER NOT NULL,
	checksum      TEXT NOT NULL DEFAULT ''
)`

const createRunsIndex = `CREATE INDEX IF NOT EXISTS runs_dataset_started ON runs (dataset, started_at)`

// Open opens (creating when needed) the run log at dsn, a file path or any
// modernc.org/sqlite DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("history: empty database path")
	}
	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between batch workers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	for _, stmt := range []string{createRuns, createRunsIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: create table: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// FromResult converts a pipeline result into a Run.
func FromResult(res *pipeline.Result) Run {
	m := res.Validation.Metrics
	r := Run{
		RunID:        res.RunID,
		Dataset:      absPath(res.Path),
		StartedAt:    res.StartedAt,
		Duration:     res.Duration,
		Rows:         res.Rows,
		Cols:         res.Cols,
		Completeness: m.Completeness,
		Uniqueness:   m.Uniqueness,
		Consistency:  m.Consistency,
		OverallScore: m.OverallScore,
		Issues:       len(res.Validation.Issues),
	}
	if res.Dataset != nil {
		r.Checksum = res.Dataset.Checksum
	}
	return r
}

// Record inserts r. Recording the same run id twice is an error.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs
		(run_id, dataset, started_at, duration_ms, row_count, col_count, completeness, uniqueness, consistency, overall_score, issues, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Dataset, r.StartedAt.UTC().Format(timeLayout), r.Duration.Milliseconds(),
		r.Rows, r.Cols, r.Completeness, r.Uniqueness, r.Consistency, r.OverallScore, r.Issues, r.Checksum)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", r.RunID, err)
	}
	return nil
}

// List returns runs for dataset, newest first. An empty dataset lists every
// run. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, dataset string, limit int) ([]Run, error) {
	q := `SELECT run_id, dataset, started_at, duration_ms, row_count, col_count, completeness, uniqueness, consistency, overall_score, issues, checksum FROM runs`
	var args []any
	if dataset != "" {
		q += ` WHERE dataset = ?`
		args = append(args, absPath(dataset))
	}
	q += ` ORDER BY started_at DESC, run_id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var ms int64
		if err := rows.Scan(&r.RunID, &r.Dataset, &started, &ms, &r.Rows, &r.Cols,
			&r.Completeness, &r.Uniqueness, &r.Consistency, &r.OverallScore, &r.Issues, &r.Checksum); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("history: run %s: bad started_at %q: %w", r.RunID, started, err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
