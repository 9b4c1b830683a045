// Package history keeps a ledger of release runs in SQLite.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run is one invocation of the release command.
type Run struct {
	ID         string
	ReleaseID  string // empty until the build number has been increased
	Number     string
	Build      int
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or after a crash
	Outcome    string
	Error      string
}

// StepRecord is the outcome of one pipeline step.
type StepRecord struct {
	Name     string
	Result   string
	Duration time.Duration
	Error    string
}

// Store persists release runs.
type Store interface {
	// BeginRun records the start of run.
	BeginRun(ctx context.Context, run Run) error

	// SetVersion attaches the release version once it is known.
	SetVersion(ctx context.Context, runID, releaseID, number string, build int) error

	// RecordStep appends a step outcome to a run.
	RecordStep(ctx context.Context, runID string, step StepRecord) error

	// FinishRun records the final outcome.
	FinishRun(ctx context.Context, runID, outcome, errMsg string) error

	// Runs lists the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Steps lists the steps of a run in execution order.
	Steps(ctx context.Context, runID string) ([]StepRecord, error)

	// Close closes the store and releases resources.
	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }
