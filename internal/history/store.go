// Package history keeps a local ledger of sync runs in an embedded SQLite
// database.
//
// The ledger is operational telemetry. A sync run writes one row per run
// plus one row per failed file; nothing in a later run reads it back.
//
// Schema:
//   - runs: one row per sync run, keyed by run ID
//   - run_failures: failed files of a run (cascade-deleted with the run)
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the ledger database connection.
type Store struct {
	conn *sql.DB
	path string
}

// Run is one recorded sync run.
type Run struct {
	ID             string
	Collection     string
	CollectionID   string
	Dir            string
	Total          int
	Skipped        int
	Attempted      int
	Succeeded      int
	Failed         int
	ParseSubmitted int
	ParseSkipped   bool
	ParseError     string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Failures       []Failure
}

// Duration returns the wall-clock time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is a file that failed during a run.
type Failure struct {
	Path   string
	Reason string
}

// Filter narrows List results.
type Filter struct {
	// Since excludes runs started before this time when non-zero.
	Since time.Time

	// Collection restricts results to one collection when non-empty.
	Collection string

	// Limit caps the number of runs returned (0 means 20).
	Limit int
}

// Open opens (creating if needed) the ledger at path and initializes the schema.
//
// The caller MUST call Close() when done.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{conn: conn, path: path}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	s.conn = nil
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		collection_id TEXT,
		dir TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		attempted INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		parse_submitted INTEGER NOT NULL DEFAULT 0,
		parse_skipped INTEGER NOT NULL DEFAULT 0,
		parse_error TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_failures (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_collection ON runs(collection);
	CREATE INDEX IF NOT EXISTS idx_run_failures_run ON run_failures(run_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Record stores run and its failures in a single transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (
		id, collection, collection_id, dir, total, skipped, attempted,
		succeeded, failed, parse_submitted, parse_skipped, parse_error,
		error, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Collection, run.CollectionID, run.Dir,
		run.Total, run.Skipped, run.Attempted, run.Succeeded, run.Failed,
		run.ParseSubmitted, run.ParseSkipped, run.ParseError, run.Error,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, path, reason) VALUES (?, ?, ?)`,
			run.ID, f.Path, f.Reason); err != nil {
			return fmt.Errorf("failed to insert failure for %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// List returns recorded runs, newest first. Failures are not loaded.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, collection, COALESCE(collection_id, ''), dir, total, skipped,
		attempted, succeeded, failed, parse_submitted, parse_skipped,
		COALESCE(parse_error, ''), COALESCE(error, ''), started_at, finished_at
	FROM runs
	WHERE started_at >= ? AND (? = '' OR collection = ?)
	ORDER BY started_at DESC
	LIMIT ?`

	since := ""
	if !filter.Since.IsZero() {
		since = filter.Since.UTC().Format(timeLayout)
	}

	rows, err := s.conn.QueryContext(ctx, query, since, filter.Collection, filter.Collection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(
			&r.ID, &r.Collection, &r.CollectionID, &r.Dir, &r.Total, &r.Skipped,
			&r.Attempted, &r.Succeeded, &r.Failed, &r.ParseSubmitted, &r.ParseSkipped,
			&r.ParseError, &r.Error, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("invalid started_at for run %s: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("invalid finished_at for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Failures returns the failed files recorded for runID.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT path, COALESCE(reason, '') FROM run_failures WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}
