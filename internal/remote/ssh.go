package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"

	"git.home.luguber.info/inful/cottarelease/internal/auth"
	"git.home.luguber.info/inful/cottarelease/internal/auth/providers"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
)

// DefaultSSHPort is used when neither the configuration nor ssh_config sets a port.
const DefaultSSHPort = 22

// SSHConfig configures the native scp transport.
type SSHConfig struct {
	Target     Target
	KnownHosts []string
	Timeout    time.Duration
	Auth       providers.Options
}

// Lookup returns an ssh_config value for a host alias, or "".
type Lookup func(alias, key string) string

// SystemSSHConfig is read after the user's own ssh_config.
const SystemSSHConfig = "/etc/ssh/ssh_config"

// UserSSHConfigFiles returns ~/.ssh/config and the system file, in lookup order.
func UserSSHConfigFiles() []string {
	var files []string
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".ssh", "config"))
	}
	return append(files, SystemSSHConfig)
}

// LoadSSHConfig parses the ssh_config files at paths. Missing files and files
// the parser cannot handle are skipped. The Lookup only reports values written
// in a file, never ssh's built-in defaults, so settings nobody wrote stay unset.
func LoadSSHConfig(fs afero.Fs, paths ...string) (Lookup, error) {
	var configs []*ssh_config.Config
	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, ferrors.ConfigError("failed to read ssh_config").WithCause(err).WithContext("path", p).Build()
		}
		cfg, err := ssh_config.DecodeBytes(data)
		if err != nil {
			// The parser rejects directives such as Match that ssh itself accepts.
			slog.Warn("Skipping unsupported ssh_config", logfields.Path(p), logfields.Error(err))
			continue
		}
		configs = append(configs, cfg)
	}
	return func(alias, key string) string {
		for _, cfg := range configs {
			if v := configValue(cfg, alias, key); v != "" {
				return v
			}
		}
		return ""
	}, nil
}

// configValue reads one key. Get panics on Match nodes; treat them as unset.
func configValue(cfg *ssh_config.Config, alias, key string) (v string) {
	defer func() {
		if recover() != nil {
			v = ""
		}
	}()
	v, _ = cfg.Get(alias, key)
	return v
}

// UserSSHConfig returns a Lookup over UserSSHConfigFiles. An unreadable file
// is logged and ignored.
func UserSSHConfig() Lookup {
	lookup, err := LoadSSHConfig(afero.NewOsFs(), UserSSHConfigFiles()...)
	if err != nil {
		slog.Warn("Ignoring ssh_config", logfields.Error(err))
		return nil
	}
	return lookup
}

// Resolve fills unset connection settings from ssh_config. The configured
// host is treated as an alias; explicit settings always win.
func Resolve(cfg SSHConfig, lookup Lookup) SSHConfig {
	if lookup == nil {
		lookup = func(string, string) string { return "" }
	}
	alias := cfg.Target.Host
	if h := lookup(alias, "HostName"); h != "" {
		cfg.Target.Host = strings.ReplaceAll(h, "%h", alias)
	}
	if cfg.Target.Port == 0 {
		if p, err := strconv.Atoi(lookup(alias, "Port")); err == nil && p > 0 {
			cfg.Target.Port = p
		}
	}
	if cfg.Target.User == "" {
		cfg.Target.User = lookup(alias, "User")
	}
	if cfg.Auth.IdentityFile == "" {
		if f := lookup(alias, "IdentityFile"); f != "" {
			if _, err := os.Stat(providers.ExpandHome(f)); err == nil {
				cfg.Auth.IdentityFile = f
			}
		}
	}
	if len(cfg.KnownHosts) == 0 {
		if f := lookup(alias, "UserKnownHostsFile"); f != "" {
			cfg.KnownHosts = strings.Fields(f)
		}
	}
	if cfg.Target.Port == 0 {
		cfg.Target.Port = DefaultSSHPort
	}
	return cfg
}

// SSHCopier copies files with the scp protocol over a single SSH connection
// that is opened on first use and reused until Close.
type SSHCopier struct {
	cfg  SSHConfig
	fs   afero.Fs
	auth *auth.Manager

	mu      sync.Mutex
	client  *ssh.Client
	release func()
}

// NewSSHCopier creates a copier for cfg reading local files from fs.
func NewSSHCopier(cfg SSHConfig, fs afero.Fs, manager *auth.Manager) *SSHCopier {
	if manager == nil {
		manager = auth.NewManager()
	}
	return &SSHCopier{cfg: cfg, fs: fs, auth: manager}
}

// Target returns the resolved remote login.
func (c *SSHCopier) Target() Target { return c.cfg.Target }

// Copy implements Copier.
func (c *SSHCopier) Copy(ctx context.Context, local, remotePath string) error {
	info, err := c.fs.Stat(local)
	if err != nil {
		return ferrors.FileCopyError("local path for upload not found").
			WithCause(err).WithContext("local", local).Build()
	}

	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	session, err := client.NewSession()
	if err != nil {
		return c.copyError("failed to open SSH session", err, local, remotePath, "")
	}
	defer func() { _ = session.Close() }()

	stdin, err := session.StdinPipe()
	if err != nil {
		return c.copyError("failed to open scp input", err, local, remotePath, "")
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return c.copyError("failed to open scp output", err, local, remotePath, "")
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	cmd := scpCommand(remotePath, info.IsDir())
	slog.Debug("Starting remote scp sink", logfields.Host(c.cfg.Target.Host), slog.String("command", cmd))
	if err := session.Start(cmd); err != nil {
		return c.copyError("failed to start remote scp", err, local, remotePath, stderr.String())
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-done:
		}
	}()

	sendErr := newSCPSender(c.fs, stdin, stdout).Send(local)
	_ = stdin.Close()
	waitErr := session.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sendErr != nil {
		return c.copyError("scp transfer failed", sendErr, local, remotePath, stderr.String())
	}
	if waitErr != nil {
		return c.copyError("remote scp exited with an error", waitErr, local, remotePath, stderr.String())
	}
	return nil
}

// Close closes the SSH connection.
func (c *SSHCopier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if c.release != nil {
		c.release()
		c.release = nil
	}
	return err
}

func (c *SSHCopier) connect(ctx context.Context) (*ssh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	t := c.cfg.Target
	if t.User == "" {
		return nil, ferrors.ConfigError("remote.user is not set in the configuration or ssh_config").
			WithContext("host", t.Host).Build()
	}
	clientCfg, release, err := c.auth.ClientConfig(auth.Request{
		User:       t.Login(),
		Host:       t.Host,
		Port:       t.Port,
		KnownHosts: c.cfg.KnownHosts,
		Timeout:    c.cfg.Timeout,
		Options:    c.cfg.Auth,
	})
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		release()
		return nil, auth.ClassifyHandshakeError(err, t.Host)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = conn.Close()
		release()
		return nil, auth.ClassifyHandshakeError(err, t.Host)
	}
	slog.Info("Connected to release host", logfields.Host(t.Host), slog.String("user", t.Login()))
	c.client = ssh.NewClient(sshConn, chans, reqs)
	c.release = release
	return c.client, nil
}

func (c *SSHCopier) copyError(msg string, err error, local, remotePath, stderr string) error {
	b := ferrors.RemoteError(msg).
		WithCause(err).
		WithContext("host", c.cfg.Target.Host).
		WithContext("local", local).
		WithContext("remote_path", remotePath)
	if s := strings.TrimSpace(stderr); s != "" {
		b.WithContext("stderr", s)
	}
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Fatal {
		b.WithContext("sink", fmt.Sprintf("fatal: %s", pe.Message))
	}
	return b.Build()
}
