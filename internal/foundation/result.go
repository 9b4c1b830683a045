// Package foundation provides small generic helpers shared by the release drivers.
package foundation

import "fmt"

// Result holds either a value T or an error E. Remote transfers report one
// Result per upload so callers can inspect every outcome of a run.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok creates a successful Result.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err creates a failed Result.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// FromTuple creates a Result from a (value, error) pair.
func FromTuple[T any, E error](value T, err E) Result[T, E] {
	if any(err) != nil {
		return Err[T, E](err)
	}
	return Ok[T, E](value)
}

// IsOk reports whether the Result holds a value.
func (r Result[T, E]) IsOk() bool { return r.isOk }

// IsErr reports whether the Result holds an error.
func (r Result[T, E]) IsErr() bool { return !r.isOk }

// Unwrap returns the value, panicking on Err.
func (r Result[T, E]) Unwrap() T {
	if !r.isOk {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value if Ok, otherwise fallback.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.isOk {
		return r.value
	}
	return fallback
}

// UnwrapErr returns the error, panicking on Ok.
func (r Result[T, E]) UnwrapErr() E {
	if r.isOk {
		panic("called UnwrapErr on Ok result")
	}
	return r.err
}

// ToTuple converts the Result back to the (value, error) pattern.
func (r Result[T, E]) ToTuple() (T, E) {
	if r.isOk {
		var zeroErr E
		return r.value, zeroErr
	}
	var zeroVal T
	return zeroVal, r.err
}

// Map transforms the value of a successful Result.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if r.isOk {
		return Ok[U, E](fn(r.value))
	}
	return Err[U, E](r.err)
}

// FirstErr returns the first error in results, if any.
func FirstErr[T any, E error](results []Result[T, E]) (E, bool) {
	for _, r := range results {
		if !r.isOk {
			return r.err, true
		}
	}
	var zero E
	return zero, false
}
