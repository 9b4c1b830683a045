package errors

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, quietLogger())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"auth", AuthError("publickey denied").Build(), 5},
		{"config", ConfigError("missing remote host").Build(), 7},
		{"version control", VersionControlError("tag exists").Build(), 8},
		{"remote", RemoteError("connection refused").Build(), 8},
		{"internal", InternalError("bug").Build(), 10},
		{"manifest", ManifestError("no build field").Build(), 11},
		{"file copy", FileCopyError("missing cotta.jar").Build(), 11},
		{"history", HistoryError("db locked").Build(), 12},
		{"wrapped manifest", fmt.Errorf("release: %w", ManifestError("x").Build()), 11},
		{"unclassified error", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{"nil error", false, nil, ""},
		{"non-verbose message", false, ManifestError("build counter missing").Build(), "build counter missing (use -v for details)"},
		{"non-verbose step", false, RemoteError("x").WithContext("step", "upload cotta.jar").Build(), "remote failed during upload cotta.jar"},
		{"verbose shows full chain", true, WrapError(&customError{"eof"}, CategoryRemote, "upload").Build(), "[remote:error] upload: eof"},
		{"unclassified", false, &customError{msg: "boom"}, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, quietLogger())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, quietLogger()).WithOutput(&out)

	code := adapter.Report(VersionControlError("nothing to commit").Build())
	if code != 8 {
		t.Fatalf("expected exit code 8, got %d", code)
	}
	if !strings.Contains(out.String(), "nothing to commit") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if adapter.Report(nil) != 0 {
		t.Error("expected nil error to report exit code 0")
	}
}
