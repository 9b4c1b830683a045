package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	RunID string `name:"run" help:"Show the steps of one run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return ferrors.ConfigError("release history is disabled").WithContext("key", "history.enabled").Build()
	}
	store, err := history.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		return h.printSteps(g, store)
	}
	return h.printRuns(g, store)
}

func (h *HistoryCmd) printRuns(g *Global, store history.Store) error {
	runs, err := store.Runs(g.ctx(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(g.out(), "no releases recorded")
		return nil
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tRELEASE\tOUTCOME\tERROR")
	for _, r := range runs {
		release := r.ReleaseID
		if release == "" {
			release = "-"
		}
		outcome := r.Outcome
		if outcome == "" {
			outcome = "incomplete"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.StartedAt.Local().Format(time.DateTime), release, outcome, r.Error)
	}
	return tw.Flush()
}

func (h *HistoryCmd) printSteps(g *Global, store history.Store) error {
	steps, err := store.Steps(g.ctx(), h.RunID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return ferrors.NewError(ferrors.CategoryNotFound, "no steps recorded for run").WithContext("run", h.RunID).Build()
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STEP\tRESULT\tDURATION\tERROR")
	for _, s := range steps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Result, s.Duration.Round(time.Millisecond), s.Error)
	}
	return tw.Flush()
}
