package remote

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
)

// ExecConfig configures the external-binary transport.
type ExecConfig struct {
	Command      string // scp or pscp, optionally a full path
	Target       Target
	IdentityFile string
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- command and arguments come from the release configuration
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExecCopier copies files by running scp or PuTTY's pscp.
type ExecCopier struct {
	cfg ExecConfig
	fs  afero.Fs
	run Runner
}

// NewExecCopier creates a copier; a nil runner executes the real binary.
func NewExecCopier(cfg ExecConfig, fs afero.Fs, run Runner) *ExecCopier {
	if cfg.Command == "" {
		cfg.Command = "scp"
	}
	if run == nil {
		run = execRunner
	}
	return &ExecCopier{cfg: cfg, fs: fs, run: run}
}

// Args builds the command line for one transfer.
func (c *ExecCopier) Args(local, remotePath string, dir bool) []string {
	var args []string
	if c.isPSCP() {
		args = append(args, "-batch")
	} else {
		args = append(args, "-B")
	}
	if dir {
		args = append(args, "-r")
	}
	if c.cfg.Target.Port != 0 {
		args = append(args, "-P", strconv.Itoa(c.cfg.Target.Port))
	}
	if c.cfg.IdentityFile != "" {
		args = append(args, "-i", c.cfg.IdentityFile)
	}
	return append(args, local, c.cfg.Target.Spec(remotePath))
}

func (c *ExecCopier) isPSCP() bool {
	base := strings.ToLower(filepath.Base(c.cfg.Command))
	return strings.TrimSuffix(base, ".exe") == "pscp"
}

// Copy implements Copier.
func (c *ExecCopier) Copy(ctx context.Context, local, remotePath string) error {
	info, err := c.fs.Stat(local)
	if err != nil {
		return ferrors.FileCopyError("local path for upload not found").
			WithCause(err).WithContext("local", local).Build()
	}
	args := c.Args(local, remotePath, info.IsDir())
	slog.Debug("Running copy command", slog.String("command", c.cfg.Command), slog.Any("args", args))

	out, err := c.run(ctx, c.cfg.Command, args...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		b := ferrors.RemoteError(c.cfg.Command+" failed").
			WithCause(err).
			WithContext("local", local).
			WithContext("remote_path", remotePath)
		if s := strings.TrimSpace(string(out)); s != "" {
			b.WithContext("output", s)
		}
		return b.Build()
	}
	slog.Debug("Copy command finished", logfields.Path(local), logfields.Remote(remotePath))
	return nil
}
