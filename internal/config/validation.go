package config

import (
	"fmt"
	"path"
	"strings"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	v := &configurationValidator{config: c}
	return v.validate(false)
}

// ValidateForUpload additionally checks the remote host settings.
func (c *Config) ValidateForUpload() error {
	v := &configurationValidator{config: c}
	return v.validate(true)
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate(remote bool) error {
	if err := cv.validateManifest(); err != nil {
		return err
	}
	if err := cv.validateArtifacts(); err != nil {
		return err
	}
	if err := cv.validateRetry(); err != nil {
		return err
	}
	if remote {
		return cv.validateRemote()
	}
	return nil
}

func (cv *configurationValidator) validateManifest() error {
	m := cv.config.Manifest
	if m.Path == "" {
		return ferrors.ConfigError("manifest.path is required").Build()
	}
	if m.NumberKey == m.BuildKey {
		return ferrors.ConfigError("manifest.number_key and manifest.build_key must differ").
			WithContext("key", m.BuildKey).Build()
	}
	return nil
}

func (cv *configurationValidator) validateArtifacts() error {
	a := cv.config.Artifacts
	if a.Product == "" {
		return ferrors.ConfigError("artifacts.product is required").Build()
	}
	seen := make(map[string]bool, len(a.Variants))
	for _, v := range a.Variants {
		if strings.ContainsAny(v, `/\`) {
			return ferrors.ConfigError(fmt.Sprintf("artifact variant %q must not contain path separators", v)).Build()
		}
		if seen[v] {
			return ferrors.ConfigError(fmt.Sprintf("artifact variant %q listed twice", v)).Build()
		}
		seen[v] = true
	}
	if len(a.Variants) == 0 {
		return ferrors.ConfigError("artifacts.variants must list at least one variant").Build()
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Retry
	if r.MaxRetries < 0 {
		return ferrors.ValidationError("retry.max_retries cannot be negative").Build()
	}
	if NormalizeRetryBackoff(string(r.Backoff)) == "" {
		return ferrors.ConfigError(fmt.Sprintf("unknown retry backoff %q", r.Backoff)).Build()
	}
	return nil
}

func (cv *configurationValidator) validateRemote() error {
	r := cv.config.Remote
	switch r.Transport {
	case TransportSSH, TransportExec:
	default:
		return ferrors.ConfigError(fmt.Sprintf("unknown remote transport %q", r.Transport)).Build()
	}
	if r.Host == "" {
		return ferrors.ConfigError("remote.host is required for upload").Build()
	}
	// The ssh transport may take the user from ssh_config; scp needs it here
	// to build user,label@host.
	if r.User == "" && r.Transport == TransportExec {
		return ferrors.ConfigError("remote.user is required for the exec transport").Build()
	}
	if r.Port < 0 || r.Port > 65535 {
		return ferrors.ConfigError(fmt.Sprintf("remote.port %d out of range", r.Port)).Build()
	}
	dirs := []struct{ name, dir string }{
		{"remote.builds_dir", r.BuildsDir},
		{"remote.reports_dir", r.ReportsDir},
		{"remote.javadoc_dir", r.JavadocDir},
	}
	for _, d := range dirs {
		name, dir := d.name, d.dir
		if dir == "" {
			return ferrors.ConfigError(name + " is required for upload").Build()
		}
		if !path.IsAbs(dir) {
			return ferrors.ConfigError(name+" must be an absolute remote path").WithContext("path", dir).Build()
		}
	}
	return nil
}
