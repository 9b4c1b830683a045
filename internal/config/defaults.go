package config

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	DefaultManifestPath = "core/src/META-INF/MANIFEST.MF"
	DefaultNumberKey    = "Implementation-Version"
	DefaultBuildKey     = "Implementation-Build"
	DefaultDistDir      = "build/dist"
	DefaultProduct      = "cotta"
	DefaultReportDir    = "build/report"
	DefaultHistoryPath  = ".cottarelease/history.db"

	defaultRemoteTimeout = 30 * time.Second
)

// DefaultVariants lists the library variants in upload order; "" is the core library.
func DefaultVariants() []string { return []string{"", "testbase", "asserts"} }

// DefaultJavadocDirs lists the documentation trees in upload order.
func DefaultJavadocDirs() []string {
	return []string{"build/dist/javadoc/asserts", "build/dist/javadoc/core"}
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ProjectDefaultApplier resolves the project root and manifest settings.
type ProjectDefaultApplier struct{}

func (ProjectDefaultApplier) Domain() string { return "project" }

func (ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root %q: %w", cfg.ProjectRoot, err)
	}
	cfg.ProjectRoot = root
	if cfg.Manifest.Path == "" {
		cfg.Manifest.Path = DefaultManifestPath
	}
	if cfg.Manifest.NumberKey == "" {
		cfg.Manifest.NumberKey = DefaultNumberKey
	}
	if cfg.Manifest.BuildKey == "" {
		cfg.Manifest.BuildKey = DefaultBuildKey
	}
	return nil
}

// ArtifactsDefaultApplier fills in the Cotta dist layout.
type ArtifactsDefaultApplier struct{}

func (ArtifactsDefaultApplier) Domain() string { return "artifacts" }

func (ArtifactsDefaultApplier) ApplyDefaults(cfg *Config) error {
	a := &cfg.Artifacts
	if a.DistDir == "" {
		a.DistDir = DefaultDistDir
	}
	if a.Product == "" {
		a.Product = DefaultProduct
	}
	if len(a.Variants) == 0 {
		a.Variants = DefaultVariants()
	}
	if a.ReportDir == "" {
		a.ReportDir = DefaultReportDir
	}
	if len(a.JavadocDirs) == 0 {
		a.JavadocDirs = DefaultJavadocDirs()
	}
	return nil
}

// RemoteDefaultApplier handles transport defaults. Host, credentials and port
// have no default: the SSH transport fills them from ssh_config first.
type RemoteDefaultApplier struct{}

func (RemoteDefaultApplier) Domain() string { return "remote" }

func (RemoteDefaultApplier) ApplyDefaults(cfg *Config) error {
	r := &cfg.Remote
	if r.Transport == "" {
		r.Transport = TransportSSH
	}
	if r.Transport == TransportExec && r.Command == "" {
		r.Command = "scp"
	}
	return nil
}

// RetryDefaultApplier keeps fail-fast as the default: zero retries.
type RetryDefaultApplier struct{}

func (RetryDefaultApplier) Domain() string { return "retry" }

func (RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffLinear
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = "1s"
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = "30s"
	}
	return nil
}

// HistoryDefaultApplier places the history database under the project root.
type HistoryDefaultApplier struct{}

func (HistoryDefaultApplier) Domain() string { return "history" }

func (HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		ProjectDefaultApplier{},
		ArtifactsDefaultApplier{},
		RemoteDefaultApplier{},
		RetryDefaultApplier{},
		HistoryDefaultApplier{},
	}
}

// applyDefaults runs every domain applier in order.
func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}
