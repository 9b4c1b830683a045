package artifact

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
)

// Copier copies build outputs on a filesystem.
type Copier struct {
	fs afero.Fs
}

// NewCopier creates a copier on fs.
func NewCopier(fs afero.Fs) *Copier { return &Copier{fs: fs} }

// CopyTo copies src to dst byte for byte, keeping the source file mode.
// An existing dst is replaced. The destination is synced before returning.
func (c *Copier) CopyTo(src, dst string) error {
	in, err := c.fs.Open(src)
	if err != nil {
		return copyError("failed to open build output", src, dst, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return copyError("failed to stat build output", src, dst, err)
	}
	if info.IsDir() {
		return copyError("build output is a directory", src, dst, os.ErrInvalid)
	}

	out, err := c.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return copyError("failed to create release file", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return copyError("failed to copy build output", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return copyError("failed to sync release file", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return copyError("failed to close release file", src, dst, err)
	}
	// OpenFile only applies the mode on creation.
	if err := c.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return copyError("failed to set release file mode", src, dst, err)
	}
	return nil
}

// CopyAll copies every artifact in plan order and stops at the first failure.
// onCopied, when set, sees each artifact once its release file is in place.
func (c *Copier) CopyAll(ctx context.Context, plan []Artifact, onCopied func(Artifact)) error {
	for _, a := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.CopyTo(a.Source, a.Release); err != nil {
			return err
		}
		slog.Debug("Copied artifact", logfields.Artifact(a.Name), logfields.Path(a.Release))
		if onCopied != nil {
			onCopied(a)
		}
	}
	return nil
}

// Missing returns the plan entries whose build output does not exist.
func (c *Copier) Missing(plan []Artifact) []Artifact {
	var missing []Artifact
	for _, a := range plan {
		if ok, err := afero.Exists(c.fs, a.Source); err != nil || !ok {
			missing = append(missing, a)
		}
	}
	return missing
}

func copyError(msg, src, dst string, cause error) error {
	return ferrors.FileCopyError(msg).
		WithCause(cause).
		WithContext("source", src).
		WithContext("destination", filepath.Base(dst)).
		Build()
}
