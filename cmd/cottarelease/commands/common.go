package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
	"git.home.luguber.info/inful/cottarelease/internal/config"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/git"
	"git.home.luguber.info/inful/cottarelease/internal/history"
	"git.home.luguber.info/inful/cottarelease/internal/manifest"
	"git.home.luguber.info/inful/cottarelease/internal/metrics"
	"git.home.luguber.info/inful/cottarelease/internal/release"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
	"git.home.luguber.info/inful/cottarelease/internal/retry"
)

// LogLevelEnv overrides the log level (debug, info, warn, error).
const LogLevelEnv = "COTTARELEASE_LOG_LEVEL"

// Global state shared with every subcommand.
type Global struct {
	Context context.Context
	Out     io.Writer
	Fs      afero.Fs
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"cottarelease.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Release ReleaseCmd `cmd:"" default:"withargs" help:"Increase the build number, tag it and ship the release files"`
	Status  StatusCmd  `cmd:"" help:"Show the current version and the next release"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recorded release runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors -v first, then COTTARELEASE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv(LogLevelEnv)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads and validates the configuration named on the command line.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.ConfigError("load config").WithCause(err).WithContext("path", root.Config).Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *Global) fs() afero.Fs {
	if g.Fs == nil {
		return afero.NewOsFs()
	}
	return g.Fs
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) ctx() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

// newVersionStore opens the manifest named by cfg.
func newVersionStore(cfg *config.Config, fs afero.Fs) *manifest.Store {
	return manifest.NewStore(fs, cfg.ManifestPath(), manifest.WithKeys(cfg.Manifest.NumberKey, cfg.Manifest.BuildKey))
}

// layoutFromConfig locates the build outputs and remote directories.
func layoutFromConfig(cfg *config.Config) release.Layout {
	return release.Layout{
		DistDir:     cfg.DistDir(),
		Artifacts:   artifact.Layout{Product: cfg.Artifacts.Product, Variants: cfg.Artifacts.Variants},
		ReportDir:   cfg.ReportDir(),
		JavadocDirs: cfg.JavadocDirs(),
		Remote:      remote.LayoutFromConfig(cfg),
	}
}

// openHistory opens the history store when enabled. A store that cannot be
// opened disables history for this run.
func openHistory(cfg *config.Config) history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		slog.Warn("Release history disabled", "error", err)
		return nil
	}
	return store
}

// wiring holds the drivers of one release invocation.
type wiring struct {
	pipeline *release.Pipeline
	recorder *metrics.PrometheusRecorder
	closers  []io.Closer
}

func (w *wiring) Close() {
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			slog.Warn("Close failed", "error", err)
		}
	}
}

// wire constructs the release drivers from cfg. The VCS driver is only opened
// when openVCS is set, so previews work outside a repository.
func wire(g *Global, cfg *config.Config, openVCS bool) (*wiring, error) {
	fs := g.fs()
	w := &wiring{recorder: metrics.NewPrometheusRecorder(nil)}

	deps := release.Deps{
		Versions:  newVersionStore(cfg, fs),
		Artifacts: artifact.NewCopier(fs),
		Retry:     retry.FromConfig(cfg.Retry),
		Recorder:  w.recorder,
		Out:       g.out(),
	}

	if openVCS {
		repo, err := git.Open(cfg.ProjectRoot, git.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
		if err != nil {
			return nil, err
		}
		deps.VCS = repo
	}

	copier, err := remote.NewCopierFromConfig(cfg, fs, remote.UserSSHConfig())
	if err != nil {
		return nil, err
	}
	deps.Copier = copier
	if c, ok := copier.(io.Closer); ok {
		w.closers = append(w.closers, c)
	}

	if openVCS {
		if store := openHistory(cfg); store != nil {
			deps.History = store
			w.closers = append(w.closers, store)
		}
	}

	w.pipeline = release.New(deps, layoutFromConfig(cfg))
	return w, nil
}
