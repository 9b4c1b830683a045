// Package errors provides the classified error primitives used across cottarelease.
//
// Every failure a release run can hit is reported as a ClassifiedError carrying a
// category (manifest, vcs, filecopy, remote, config, ...), a severity and a retry
// hint, plus free-form context such as the step name or the offending path.
//
// Key features:
//   - ErrorCategory: which part of the release failed
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether a caller-chosen retry policy may try again
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages for the CLI
//
// Example usage:
//
//	err := errors.RemoteError("upload failed").
//		WithCause(cause).
//		WithContext("remote", "cotta@web.sourceforge.net:/htdocs/builds").
//		Build()
package errors
