package remote

import (
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
)

// Transfer is one remote copy.
type Transfer struct {
	Label  string // short name for logs and reports
	Local  string
	Remote string // absolute path on the remote host
	Dir    bool   // copy recursively
}

// Layout holds the remote base directories.
type Layout struct {
	BuildsDir  string
	ReportsDir string
	JavadocDir string
}

// PlanInput is everything needed to compute a release's transfers.
type PlanInput struct {
	Layout      Layout
	Artifacts   []artifact.Artifact
	ReportDir   string
	JavadocDirs []string
	Number      string // version number, without the build suffix
}

// Plan lists the transfers of a release in their fixed order: every release
// file to the builds directory, the report directory to reports/<number>,
// then each javadoc directory to javadoc/<number>.
func Plan(in PlanInput) []Transfer {
	out := make([]Transfer, 0, len(in.Artifacts)+1+len(in.JavadocDirs))
	for _, a := range in.Artifacts {
		name := a.ReleaseName()
		out = append(out, Transfer{
			Label:  name,
			Local:  a.Release,
			Remote: path.Join(in.Layout.BuildsDir, name),
		})
	}
	out = append(out, Transfer{
		Label:  "report",
		Local:  in.ReportDir,
		Remote: path.Join(in.Layout.ReportsDir, in.Number),
		Dir:    true,
	})
	for _, d := range in.JavadocDirs {
		out = append(out, Transfer{
			Label:  "javadoc/" + filepath.Base(d),
			Local:  d,
			Remote: path.Join(in.Layout.JavadocDir, in.Number),
			Dir:    true,
		})
	}
	return out
}
