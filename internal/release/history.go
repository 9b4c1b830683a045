package release

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/cottarelease/internal/foundation"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/history"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
	"git.home.luguber.info/inful/cottarelease/internal/metrics"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

// History writes never fail a release; they are logged and dropped.

func (r *run) beginHistory(ctx context.Context) {
	if r.p.deps.History == nil {
		return
	}
	err := r.p.deps.History.BeginRun(ctx, history.Run{ID: r.report.RunID, StartedAt: r.report.Start})
	r.warnHistory(err)
}

func (r *run) setHistoryVersion(ctx context.Context, v version.Version) {
	if r.p.deps.History == nil {
		return
	}
	r.warnHistory(r.p.deps.History.SetVersion(ctx, r.report.RunID, v.ReleaseID(), v.Number, v.Build))
}

func (r *run) recordStep(ctx context.Context, res StepResult, result metrics.ResultLabel) {
	if r.p.deps.History == nil {
		return
	}
	rec := history.StepRecord{Name: string(res.Name), Result: string(result), Duration: res.Duration}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	// A canceled ctx must not stop the failure from being recorded.
	r.warnHistory(r.p.deps.History.RecordStep(context.WithoutCancel(ctx), r.report.RunID, rec))
}

func (r *run) recordTransfer(ctx context.Context, t remote.Transfer, res foundation.Result[remote.Receipt, error]) {
	recorder := r.p.deps.Recorder
	attempts := 1
	step := history.StepRecord{Name: "upload " + t.Label}
	if res.IsOk() {
		receipt := res.Unwrap()
		attempts = receipt.Attempts
		recorder.ObserveTransferDuration(t.Label, receipt.Duration, true)
		step.Result, step.Duration = string(metrics.ResultSuccess), receipt.Duration
	} else {
		err := res.UnwrapErr()
		if ce, ok := ferrors.AsClassified(err); ok {
			if n, found := ce.Context().Get("attempts"); found {
				if v, isInt := n.(int); isInt {
					attempts = v
				}
			}
		}
		recorder.ObserveTransferDuration(t.Label, 0, false)
		step.Result, step.Error = string(metrics.ResultFailed), err.Error()
	}
	for i := 1; i < attempts; i++ {
		recorder.IncTransferRetry(t.Label)
	}
	if r.p.deps.History != nil {
		r.warnHistory(r.p.deps.History.RecordStep(context.WithoutCancel(ctx), r.report.RunID, step))
	}
}

func (r *run) finishHistory(err error) {
	if r.p.deps.History == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.warnHistory(r.p.deps.History.FinishRun(context.Background(), r.report.RunID, string(r.report.Outcome), msg))
}

func (r *run) warnHistory(err error) {
	if err != nil {
		r.log.Warn("Release history not updated", logfields.Error(err), slog.String("category", string(ferrors.GetCategory(err))))
	}
}
