// Package version holds the release version model and the build metadata of the
// cottarelease binary itself.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Binary version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/cottarelease/internal/version.BinaryVersion=v1.0.0".
var BinaryVersion = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	tagPrefix      = "version-"
	commitPrefix   = "releasing "
	buildSeparator = "b"
)

// Version is the released library version: a dotted number plus a monotonically
// increasing build counter.
type Version struct {
	Number string
	Build  int
}

// ReleaseID returns the "<number>b<build>" identifier that names commits, tags and files.
func (v Version) ReleaseID() string {
	return v.Number + buildSeparator + strconv.Itoa(v.Build)
}

// String implements fmt.Stringer.
func (v Version) String() string { return v.ReleaseID() }

// TagName returns the tag created for this release.
func (v Version) TagName() string { return tagPrefix + v.ReleaseID() }

// CommitMessage returns the message of the manifest bump commit.
func (v Version) CommitMessage() string { return commitPrefix + v.ReleaseID() }

// Next returns the version with the build counter incremented by one.
func (v Version) Next() Version {
	return Version{Number: v.Number, Build: v.Build + 1}
}

// Validate checks the number is a dotted numeric version and the build is non-negative.
func (v Version) Validate() error {
	if v.Number == "" {
		return fmt.Errorf("version number is empty")
	}
	for _, part := range strings.Split(v.Number, ".") {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return fmt.Errorf("version number %q is not a dotted number", v.Number)
		}
	}
	if v.Build < 0 {
		return fmt.Errorf("build number %d is negative", v.Build)
	}
	return nil
}

// Info returns a one-line description of the binary build.
func Info() string {
	return fmt.Sprintf("cottarelease %s (commit %s, built %s)", BinaryVersion, GitCommit, BuildTime)
}
