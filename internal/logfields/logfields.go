package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyReleaseID  = "release_id"
	KeyRunID      = "run_id"
	KeyStep       = "step"
	KeyArtifact   = "artifact"
	KeyPath       = "path"
	KeyRemote     = "remote"
	KeyHost       = "host"
	KeyTag        = "tag"
	KeyCommit     = "commit"
	KeyBuild      = "build"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ReleaseID(id string) slog.Attr   { return slog.String(KeyReleaseID, id) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Remote(r string) slog.Attr       { return slog.String(KeyRemote, r) }
func Host(h string) slog.Attr         { return slog.String(KeyHost, h) }
func Tag(name string) slog.Attr       { return slog.String(KeyTag, name) }
func Commit(hash string) slog.Attr    { return slog.String(KeyCommit, hash) }
func Build(n int) slog.Attr           { return slog.Int(KeyBuild, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
