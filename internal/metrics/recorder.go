package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final status of a release run.
type OutcomeLabel string

const (
	OutcomeReleased OutcomeLabel = "released"
	OutcomeDryRun   OutcomeLabel = "dry_run"
	OutcomeLocal    OutcomeLabel = "local_only"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for release runs.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	ObserveReleaseDuration(d time.Duration)
	IncReleaseOutcome(outcome OutcomeLabel)
	ObserveTransferDuration(transfer string, d time.Duration, success bool)
	IncTransferRetry(transfer string)
	SetBuildNumber(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration)           {}
func (NoopRecorder) IncStepResult(string, ResultLabel)                   {}
func (NoopRecorder) ObserveReleaseDuration(time.Duration)                {}
func (NoopRecorder) IncReleaseOutcome(OutcomeLabel)                      {}
func (NoopRecorder) ObserveTransferDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncTransferRetry(string)                             {}
func (NoopRecorder) SetBuildNumber(int)                                  {}
