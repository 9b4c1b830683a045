package release

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
	"git.home.luguber.info/inful/cottarelease/internal/remote"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

// Preview describes what a run would do, computed without side effects.
type Preview struct {
	Current       version.Version
	Next          version.Version
	ManifestPath  string
	CommitMessage string
	Tag           string
	Artifacts     []artifact.Artifact
	Missing       []artifact.Artifact // build outputs not found
	Transfers     []remote.Transfer
}

// missingChecker is implemented by copiers that can check build outputs up front.
type missingChecker interface {
	Missing(plan []artifact.Artifact) []artifact.Artifact
}

// Preview computes the next release from the current manifest.
func (p *Pipeline) Preview(opts Options) (*Preview, error) {
	current, err := p.deps.Versions.Read()
	if err != nil {
		return nil, err
	}
	next := current.Next()
	plan := p.layout.Artifacts.Plan(p.layout.DistDir, next.ReleaseID())

	pv := &Preview{
		Current:       current,
		Next:          next,
		ManifestPath:  p.deps.Versions.Path(),
		CommitMessage: next.CommitMessage(),
		Tag:           next.TagName(),
		Artifacts:     plan,
	}
	if mc, ok := p.deps.Artifacts.(missingChecker); ok {
		pv.Missing = mc.Missing(plan)
	}
	if !opts.SkipUpload {
		pv.Transfers = remote.Plan(remote.PlanInput{
			Layout:      p.layout.Remote,
			Artifacts:   plan,
			ReportDir:   p.layout.ReportDir,
			JavadocDirs: p.layout.JavadocDirs,
			Number:      next.Number,
		})
	}
	return pv, nil
}

// Write prints the preview as a numbered plan.
func (pv *Preview) Write(w io.Writer, target remote.Target) error {
	ew := &errWriter{w: w}
	n := 0
	line := func(format string, args ...any) {
		n++
		ew.printf("%2d. "+format+"\n", append([]any{n}, args...)...)
	}

	ew.printf("Release %s (current %s)\n", pv.Next.ReleaseID(), pv.Current.ReleaseID())
	line("increase build number in %s to %d", pv.ManifestPath, pv.Next.Build)
	line("stage %s", pv.ManifestPath)
	line("commit %q", pv.CommitMessage)
	line("tag %s", pv.Tag)
	for _, a := range pv.Artifacts {
		line("copy %s", a)
	}
	for _, t := range pv.Transfers {
		suffix := ""
		if t.Dir {
			suffix = " (recursive)"
		}
		line("upload %s to %s%s", t.Local, target.Spec(t.Remote), suffix)
	}
	for _, a := range pv.Missing {
		ew.printf("warning: build output %s not found\n", a.Source)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
