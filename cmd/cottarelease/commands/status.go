package commands

import (
	"fmt"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct{}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	fs := g.fs()
	store := newVersionStore(cfg, fs)
	current, err := store.Read()
	if err != nil {
		return err
	}
	next := current.Next()
	out := g.out()

	_, _ = fmt.Fprintf(out, "Manifest:     %s\n", store.Path())
	_, _ = fmt.Fprintf(out, "Current:      %s\n", current.ReleaseID())
	_, _ = fmt.Fprintf(out, "Next release: %s (tag %s)\n", next.ReleaseID(), next.TagName())

	layout := layoutFromConfig(cfg)
	plan := layout.Artifacts.Plan(layout.DistDir, next.ReleaseID())
	missing := artifact.NewCopier(fs).Missing(plan)
	if len(missing) == 0 {
		_, _ = fmt.Fprintf(out, "Build outputs: %d ready in %s\n", len(plan), layout.DistDir)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Build outputs: %d of %d missing\n", len(missing), len(plan))
	for _, a := range missing {
		_, _ = fmt.Fprintf(out, "  missing %s\n", a.Source)
	}
	return nil
}
