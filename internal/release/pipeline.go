// Package release runs a Cotta release: increase the build number, record it
// in version control, rename the build outputs and ship them to the project
// web host. Steps run strictly in order and the first failure ends the run.
// Nothing that already happened is undone.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
	"git.home.luguber.info/inful/cottarelease/internal/foundation"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/history"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
	"git.home.luguber.info/inful/cottarelease/internal/metrics"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
	"git.home.luguber.info/inful/cottarelease/internal/retry"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

// VersionStore reads and increases the release version.
type VersionStore interface {
	Read() (version.Version, error)
	Increment() (version.Version, error)
	Path() string
}

// VersionControl records the release in the repository.
type VersionControl interface {
	Stage(path string) error
	Commit(message string) (string, error)
	Tag(name string) error
}

// ArtifactCopier copies build outputs to their release names in plan order,
// calling onCopied after each one.
type ArtifactCopier interface {
	CopyAll(ctx context.Context, plan []artifact.Artifact, onCopied func(artifact.Artifact)) error
}

// Layout locates the local build outputs and the remote directories.
type Layout struct {
	DistDir     string
	Artifacts   artifact.Layout
	ReportDir   string
	JavadocDirs []string
	Remote      remote.Layout
}

// Options control a run.
type Options struct {
	SkipUpload bool // stop after the local renames
}

// Deps are the drivers a pipeline runs on.
type Deps struct {
	Versions  VersionStore
	VCS       VersionControl
	Artifacts ArtifactCopier
	Copier    remote.Copier
	Retry     retry.Policy
	Recorder  metrics.Recorder // optional
	History   history.Store    // optional
	Out       io.Writer        // receives the staging reminder; defaults to io.Discard
}

// Pipeline is a configured release run.
type Pipeline struct {
	deps   Deps
	layout Layout
	driver *remote.Driver
	now    func() time.Time
}

// New creates a pipeline.
func New(deps Deps, layout Layout) *Pipeline {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Pipeline{
		deps:   deps,
		layout: layout,
		driver: remote.NewDriver(deps.Copier, deps.Retry),
		now:    time.Now,
	}
}

// run carries the state of one execution.
type run struct {
	p      *Pipeline
	report *Report
	log    *slog.Logger
}

// Run executes the release. The report is returned even when the run fails.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	r := &run{
		p:      p,
		report: &Report{RunID: history.NewRunID(), Start: p.now()},
	}
	r.log = slog.With(logfields.RunID(r.report.RunID))
	r.beginHistory(ctx)

	err := r.execute(ctx, opts)

	r.report.End = p.now()
	r.report.Outcome = outcomeFor(err, opts)
	p.deps.Recorder.ObserveReleaseDuration(r.report.Duration())
	p.deps.Recorder.IncReleaseOutcome(r.report.Outcome)
	r.finishHistory(err)

	if err != nil {
		r.log.Error("Release failed", logfields.Error(err), slog.String("outcome", string(r.report.Outcome)))
		return r.report, err
	}
	r.log.Info("Release finished", logfields.ReleaseID(r.report.Version.ReleaseID()),
		logfields.DurationMS(float64(r.report.Duration().Milliseconds())))
	return r.report, nil
}

func (r *run) execute(ctx context.Context, opts Options) error {
	d := r.p.deps

	if err := r.step(ctx, StepIncrementBuild, func(context.Context) error {
		v, err := d.Versions.Increment()
		if err != nil {
			return err
		}
		r.report.Version = v
		r.log = r.log.With(logfields.ReleaseID(v.ReleaseID()))
		d.Recorder.SetBuildNumber(v.Build)
		r.setHistoryVersion(ctx, v)
		return nil
	}); err != nil {
		return err
	}
	v := r.report.Version

	if err := r.step(ctx, StepStageManifest, func(context.Context) error {
		return d.VCS.Stage(d.Versions.Path())
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StepCommit, func(context.Context) error {
		hash, err := d.VCS.Commit(v.CommitMessage())
		r.report.Commit = hash
		return err
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StepTag, func(context.Context) error {
		if err := d.VCS.Tag(v.TagName()); err != nil {
			return err
		}
		r.report.Tag = v.TagName()
		return nil
	}); err != nil {
		return err
	}

	plan := r.p.layout.Artifacts.Plan(r.p.layout.DistDir, v.ReleaseID())
	if err := r.step(ctx, StepCopyArtifacts, func(ctx context.Context) error {
		return d.Artifacts.CopyAll(ctx, plan, func(a artifact.Artifact) {
			r.report.Artifacts = append(r.report.Artifacts, a.ReleaseName())
			r.log.Info("Copied artifact", logfields.Artifact(a.Name), logfields.Path(a.Release))
		})
	}); err != nil {
		return err
	}

	if opts.SkipUpload {
		r.log.Info("Upload skipped", logfields.ReleaseID(v.ReleaseID()))
		return nil
	}

	transfers := r.transfers(plan, v)
	if err := r.step(ctx, StepUpload, func(ctx context.Context) error {
		r.report.Transfers = r.p.driver.TransferAll(ctx, transfers, func(t remote.Transfer, res foundation.Result[remote.Receipt, error]) {
			r.recordTransfer(ctx, t, res)
		})
		if err, failed := foundation.FirstErr(r.report.Transfers); failed {
			return err
		}
		if len(r.report.Transfers) < len(transfers) {
			return ctx.Err()
		}
		return nil
	}); err != nil {
		return err
	}

	return r.step(ctx, StepAnnounce, func(context.Context) error {
		_, err := fmt.Fprintln(d.Out, StagingReminder)
		return err
	})
}

// transfers computes the remote copies for a release.
func (r *run) transfers(plan []artifact.Artifact, v version.Version) []remote.Transfer {
	return remote.Plan(remote.PlanInput{
		Layout:      r.p.layout.Remote,
		Artifacts:   plan,
		ReportDir:   r.p.layout.ReportDir,
		JavadocDirs: r.p.layout.JavadocDirs,
		Number:      v.Number,
	})
}

// step runs fn as the named step, recording timing, metrics and history.
// Errors come back classified and tagged with the step name.
func (r *run) step(ctx context.Context, name StepName, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, StepResult{Name: name, Started: r.p.now()}, interrupted(name, err))
	}

	started := r.p.now()
	r.log.Debug("Step started", logfields.Step(string(name)))
	err := fn(ctx)
	res := StepResult{Name: name, Started: started, Duration: r.p.now().Sub(started)}
	r.p.deps.Recorder.ObserveStepDuration(string(name), res.Duration)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			err = interrupted(name, err)
		}
		return r.fail(ctx, res, stepError(name, err))
	}

	r.report.Steps = append(r.report.Steps, res)
	r.p.deps.Recorder.IncStepResult(string(name), metrics.ResultSuccess)
	r.recordStep(ctx, res, metrics.ResultSuccess)
	r.log.Debug("Step finished", logfields.Step(string(name)), logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return nil
}

func (r *run) fail(ctx context.Context, res StepResult, err error) error {
	res.Err = err
	result := metrics.ResultFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result = metrics.ResultCanceled
	}
	r.report.Steps = append(r.report.Steps, res)
	r.p.deps.Recorder.IncStepResult(string(res.Name), result)
	r.recordStep(ctx, res, result)
	return err
}

// stepError classifies err and tags it with the step name.
func stepError(name StepName, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext("step", string(name))
	}
	return ferrors.InternalError("release step failed").
		WithCause(err).
		WithContext("step", string(name)).
		Build()
}

func interrupted(name StepName, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok && ce.Category() == ferrors.CategoryRuntime {
		return err
	}
	return ferrors.NewError(ferrors.CategoryRuntime, "release interrupted").
		WithCause(err).
		WithContext("step", string(name)).
		Build()
}

func outcomeFor(err error, opts Options) metrics.OutcomeLabel {
	switch {
	case err == nil && opts.SkipUpload:
		return metrics.OutcomeLocal
	case err == nil:
		return metrics.OutcomeReleased
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}
