// Package artifact derives release file names from the build outputs and
// copies the outputs under those names.
package artifact

import "path/filepath"

// Artifact is one build output and the name it is released under.
type Artifact struct {
	Name    string // build output file name, e.g. cotta-testbase.jar
	Source  string // path of the build output
	Release string // path of the renamed copy, next to Source
}

// ReleaseName returns the base name of the released file.
func (a Artifact) ReleaseName() string { return filepath.Base(a.Release) }

// Layout names the product and its variants. The empty variant is the core library.
type Layout struct {
	Product  string
	Variants []string
}

// DefaultLayout is the Cotta layout: core, testbase and asserts.
func DefaultLayout() Layout {
	return Layout{Product: "cotta", Variants: []string{"", "testbase", "asserts"}}
}

// Plan lists the default layout's artifacts for release id in distDir.
func Plan(distDir, id string) []Artifact {
	return DefaultLayout().Plan(distDir, id)
}

// Plan lists, per variant, the binary jar followed by the source zip.
func (l Layout) Plan(distDir, id string) []Artifact {
	out := make([]Artifact, 0, 2*len(l.Variants))
	for _, v := range l.Variants {
		base := l.Product
		if v != "" {
			base += "-" + v
		}
		out = append(out,
			newArtifact(distDir, base+".jar", base+"-"+id+".jar"),
			newArtifact(distDir, base+"-src.zip", base+"-"+id+"-src.zip"),
		)
	}
	return out
}

func newArtifact(dir, name, release string) Artifact {
	return Artifact{Name: name, Source: filepath.Join(dir, name), Release: filepath.Join(dir, release)}
}

// String renders the artifact as "source -> release".
func (a Artifact) String() string {
	return a.Name + " -> " + a.ReleaseName()
}
