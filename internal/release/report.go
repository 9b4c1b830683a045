package release

import (
	"time"

	"git.home.luguber.info/inful/cottarelease/internal/foundation"
	"git.home.luguber.info/inful/cottarelease/internal/metrics"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Name     StepName
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Report captures a release run. Steps lists only the steps that ran; the
// last one holds the error of a failed run.
type Report struct {
	RunID     string
	Start     time.Time
	End       time.Time
	Version   version.Version // zero until the build number has been increased
	Commit    string
	Tag       string
	Artifacts []string // release file names that were written
	Transfers []foundation.Result[remote.Receipt, error]
	Steps     []StepResult
	Outcome   metrics.OutcomeLabel
}

// Failed returns the failing step, if any.
func (r *Report) Failed() (StepResult, bool) {
	if len(r.Steps) == 0 {
		return StepResult{}, false
	}
	last := r.Steps[len(r.Steps)-1]
	return last, last.Err != nil
}

// Executed returns the names of the steps that ran, in order.
func (r *Report) Executed() []StepName {
	names := make([]StepName, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}
