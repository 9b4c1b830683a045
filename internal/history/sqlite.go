package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens the history database at dbPath, creating it and its
// directory if needed. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ferrors.HistoryError("could not create history directory").WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.HistoryError("could not open history database").WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, ferrors.HistoryError("failed to initialize history schema").WithCause(err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		release_id TEXT NOT NULL DEFAULT '',
		number TEXT NOT NULL DEFAULT '',
		build INTEGER NOT NULL DEFAULT 0,
		dry_run INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT NOT NULL DEFAULT 'running',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		name TEXT NOT NULL,
		result TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records the start of run. A zero StartedAt is set to now.
func (s *SQLiteStore) BeginRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, release_id, number, build, dry_run, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.ReleaseID, run.Number, run.Build, run.DryRun, run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return historyError("failed to record run start", runIDErr(run.ID, err))
	}
	return nil
}

// SetVersion attaches the release version to a run.
func (s *SQLiteStore) SetVersion(ctx context.Context, runID, releaseID, number string, build int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, runID, "failed to record run version",
		"UPDATE runs SET release_id = ?, number = ?, build = ? WHERE id = ?",
		releaseID, number, build, runID)
}

// RecordStep appends a step outcome to a run.
func (s *SQLiteStore) RecordStep(ctx context.Context, runID string, step StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO steps (run_id, name, result, duration_ms, error) VALUES (?, ?, ?, ?, ?)",
		runID, step.Name, step.Result, step.Duration.Milliseconds(), step.Error,
	)
	if err != nil {
		return historyError("failed to record step", runIDErr(runID, err))
	}
	return nil
}

// FinishRun records the final outcome.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID, outcome, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, runID, "failed to record run outcome",
		"UPDATE runs SET finished_at = ?, outcome = ?, error = ? WHERE id = ?",
		s.now().UnixMilli(), outcome, errMsg, runID)
}

func (s *SQLiteStore) update(ctx context.Context, runID, msg, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return historyError(msg, runIDErr(runID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return historyError(msg, runIDErr(runID, sql.ErrNoRows))
	}
	return nil
}

// Runs lists the most recent runs, newest first. A limit <= 0 lists all.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, release_id, number, build, dry_run, started_at, finished_at, outcome, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, historyError("failed to query runs", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.ReleaseID, &r.Number, &r.Build, &r.DryRun, &started, &finished, &r.Outcome, &r.Error); err != nil {
			return nil, historyError("failed to scan run", err)
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, historyError("failed to iterate runs", err)
	}
	return runs, nil
}

// Steps lists the steps of a run in execution order.
func (s *SQLiteStore) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, result, duration_ms, error FROM steps WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, historyError("failed to query steps", runIDErr(runID, err))
	}
	defer func() { _ = rows.Close() }()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		var ms int64
		if err := rows.Scan(&st.Name, &st.Result, &ms, &st.Error); err != nil {
			return nil, historyError("failed to scan step", err)
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, historyError("failed to iterate steps", err)
	}
	return steps, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func historyError(msg string, err error) error {
	return ferrors.HistoryError(msg).WithCause(err).Build()
}

func runIDErr(runID string, err error) error {
	return fmt.Errorf("run %s: %w", runID, err)
}
