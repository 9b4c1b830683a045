package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cottarelease/internal/config"
	"git.home.luguber.info/inful/cottarelease/internal/foundation"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/retry"
)

// fakeCopier records calls and fails according to failures (remote path -> remaining failures).
type fakeCopier struct {
	calls    []string
	failures map[string]int
	err      error
}

func (f *fakeCopier) Copy(_ context.Context, _, remotePath string) error {
	f.calls = append(f.calls, remotePath)
	if f.failures[remotePath] > 0 {
		f.failures[remotePath]--
		return f.err
	}
	return nil
}

func transfers(n int) []Transfer {
	out := make([]Transfer, n)
	for i := range out {
		out[i] = Transfer{Label: string(rune('a' + i)), Local: "/l", Remote: "/r/" + string(rune('a'+i))}
	}
	return out
}

func TestTransferAllStopsAtFirstFailure(t *testing.T) {
	fc := &fakeCopier{failures: map[string]int{"/r/c": 1}, err: ferrors.RemoteError("boom").Build()}
	d := NewDriver(fc, retry.DefaultPolicy())

	var seen []string
	results := d.TransferAll(context.Background(), transfers(5), func(t Transfer, _ foundation.Result[Receipt, error]) {
		seen = append(seen, t.Label)
	})
	require.Len(t, results, 3)
	assert.Equal(t, []string{"/r/a", "/r/b", "/r/c"}, fc.calls)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.True(t, results[0].IsOk())
	assert.True(t, results[1].IsOk())

	err, failed := foundation.FirstErr(results)
	require.True(t, failed)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRemote))
	ce, _ := ferrors.AsClassified(err)
	label, _ := ce.Context().GetString("transfer")
	assert.Equal(t, "c", label)
}

func TestTransferAllStopsWhenCancelled(t *testing.T) {
	fc := &fakeCopier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewDriver(fc, retry.DefaultPolicy()).TransferAll(ctx, transfers(3), nil)
	assert.Empty(t, results)
	assert.Empty(t, fc.calls)
}

func TestTransferRetriesUnderPolicy(t *testing.T) {
	fc := &fakeCopier{failures: map[string]int{"/r/a": 2}, err: ferrors.RemoteError("flaky").Build()}
	policy := retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)

	r := NewDriver(fc, policy).Transfer(context.Background(), transfers(1)[0])
	require.True(t, r.IsOk())
	assert.Equal(t, 3, r.Unwrap().Attempts)
}

func TestTransferDoesNotRetryPermanentErrors(t *testing.T) {
	fc := &fakeCopier{failures: map[string]int{"/r/a": 5}, err: errors.New("plain failure")}
	policy := retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)

	r := NewDriver(fc, policy).Transfer(context.Background(), transfers(1)[0])
	require.True(t, r.IsErr())
	assert.Len(t, fc.calls, 1)
	assert.True(t, ferrors.HasCategory(r.UnwrapErr(), ferrors.CategoryRemote))
}
