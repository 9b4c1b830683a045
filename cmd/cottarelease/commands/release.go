package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/cottarelease/internal/config"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
	"git.home.luguber.info/inful/cottarelease/internal/metrics"
	"git.home.luguber.info/inful/cottarelease/internal/release"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
)

// ReleaseCmd implements the 'release' command.
type ReleaseCmd struct {
	DryRun     bool `name:"dry-run" help:"Print the release plan without changing anything"`
	SkipUpload bool `name:"skip-upload" help:"Stop after renaming the build outputs"`
}

func (r *ReleaseCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !r.SkipUpload {
		if err := cfg.ValidateForUpload(); err != nil {
			return err
		}
	}
	opts := release.Options{SkipUpload: r.SkipUpload}

	w, err := wire(g, cfg, !r.DryRun)
	if err != nil {
		return err
	}
	defer w.Close()

	if r.DryRun {
		if err := RunPreview(g, cfg, w.pipeline, opts); err != nil {
			return err
		}
		w.recorder.IncReleaseOutcome(metrics.OutcomeDryRun)
		writeMetrics(cfg, w)
		return nil
	}

	report, runErr := w.pipeline.Run(g.ctx(), opts)
	writeMetrics(cfg, w)
	if runErr != nil {
		return runErr
	}
	slog.Info("Released", logfields.ReleaseID(report.Version.ReleaseID()), logfields.Tag(report.Tag),
		logfields.Commit(report.Commit), slog.Int("files", len(report.Artifacts)), slog.Int("transfers", len(report.Transfers)))
	return nil
}

// RunPreview prints what a release would do.
func RunPreview(g *Global, cfg *config.Config, p *release.Pipeline, opts release.Options) error {
	pv, err := p.Preview(opts)
	if err != nil {
		return err
	}
	if err := pv.Write(g.out(), remote.TargetFromConfig(cfg)); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// writeMetrics exports the run's metrics when a textfile path is configured.
func writeMetrics(cfg *config.Config, w *wiring) {
	if cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := w.recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		slog.Warn("Metrics textfile not written", logfields.Path(cfg.Metrics.TextfilePath), logfields.Error(err))
	}
}
