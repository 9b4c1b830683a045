package config

import (
	"strings"
	"time"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig is the caller-chosen retry policy for remote transfers.
// MaxRetries 0 keeps the original fail-fast behaviour.
type RetryConfig struct {
	MaxRetries   int              `yaml:"max_retries"`
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty"`
}

// InitialDelayDuration parses InitialDelay, returning 0 when unset or invalid.
func (r RetryConfig) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.InitialDelay)
	return d
}

// MaxDelayDuration parses MaxDelay, returning 0 when unset or invalid.
func (r RetryConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.MaxDelay)
	return d
}

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}
