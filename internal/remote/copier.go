// Package remote ships release files to the project web host.
//
// Two Copier implementations exist: SSHCopier speaks the scp protocol over
// golang.org/x/crypto/ssh, ExecCopier runs an external scp or pscp binary.
// The Driver runs a transfer plan through either, one transfer at a time.
package remote

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cottarelease/internal/foundation"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
	"git.home.luguber.info/inful/cottarelease/internal/retry"
)

// Copier copies a local file or directory tree to a path on the remote host.
type Copier interface {
	Copy(ctx context.Context, local, remotePath string) error
}

// Receipt records a completed transfer.
type Receipt struct {
	Transfer Transfer
	Attempts int
	Duration time.Duration
}

// Driver runs transfers through a Copier under a retry policy.
type Driver struct {
	copier Copier
	policy retry.Policy
}

// NewDriver creates a driver. The zero retry.Policy fails fast.
func NewDriver(copier Copier, policy retry.Policy) *Driver {
	return &Driver{copier: copier, policy: policy}
}

// Transfer performs one transfer.
func (d *Driver) Transfer(ctx context.Context, t Transfer) foundation.Result[Receipt, error] {
	start := time.Now()
	attempts := 0
	err := d.policy.Do(ctx, func(ctx context.Context) error {
		attempts++
		return d.copier.Copy(ctx, t.Local, t.Remote)
	}, func(attempt int, err error) {
		slog.Warn("Retrying transfer", logfields.Artifact(t.Label), logfields.Attempt(attempt), logfields.Error(err))
	})
	if err != nil {
		return foundation.Err[Receipt, error](transferError(t, attempts, err))
	}
	r := Receipt{Transfer: t, Attempts: attempts, Duration: time.Since(start)}
	slog.Info("Transferred", logfields.Artifact(t.Label), logfields.Remote(t.Remote),
		logfields.DurationMS(float64(r.Duration.Milliseconds())))
	return foundation.Ok[Receipt, error](r)
}

// TransferAll performs transfers in order and stops after the first failure
// or when ctx is done. The failed transfer's result is the last element.
// onResult, when set, sees every result as it arrives.
func (d *Driver) TransferAll(ctx context.Context, transfers []Transfer,
	onResult func(Transfer, foundation.Result[Receipt, error]),
) []foundation.Result[Receipt, error] {
	results := make([]foundation.Result[Receipt, error], 0, len(transfers))
	for _, t := range transfers {
		if ctx.Err() != nil {
			break
		}
		r := d.Transfer(ctx, t)
		results = append(results, r)
		if onResult != nil {
			onResult(t, r)
		}
		if r.IsErr() {
			break
		}
	}
	return results
}

func transferError(t Transfer, attempts int, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext("transfer", t.Label).WithContext("remote_path", t.Remote).WithContext("attempts", attempts)
	}
	return ferrors.RemoteError("remote copy failed").
		WithCause(err).
		WithContext("transfer", t.Label).
		WithContext("local", t.Local).
		WithContext("remote_path", t.Remote).
		WithContext("attempts", attempts).
		Build()
}
