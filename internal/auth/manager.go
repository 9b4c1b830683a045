// Package auth builds SSH client configurations for the release host:
// authentication methods from the provider registry and host key checking
// against known_hosts.
package auth

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"

	"git.home.luguber.info/inful/cottarelease/internal/auth/providers"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// DefaultKnownHosts is used when no known_hosts file is configured.
const DefaultKnownHosts = "~/.ssh/known_hosts"

// Request describes the connection to authenticate.
type Request struct {
	User       string // login name, including any SourceForge project label
	Host       string
	Port       int
	KnownHosts []string
	Timeout    time.Duration
	providers.Options
}

// Manager provides a high-level interface for authentication operations.
type Manager struct {
	registry *providers.AuthProviderRegistry
}

// NewManager creates a new authentication manager with the standard providers.
func NewManager() *Manager {
	return &Manager{registry: providers.NewAuthProviderRegistry()}
}

// ClientConfig builds the ssh.ClientConfig for req. The returned release
// function closes agent connections and must be called once the client is closed.
func (m *Manager) ClientConfig(req Request) (*ssh.ClientConfig, func(), error) {
	known := req.KnownHosts
	if len(known) == 0 {
		known = []string{DefaultKnownHosts}
	}
	// ssh skips absent known_hosts files; so do we, as long as one is left.
	files := make([]string, 0, len(known))
	var missing []string
	for _, f := range known {
		f = providers.ExpandHome(f)
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, f)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, nil, ferrors.AuthError("failed to load known_hosts: no file exists").
			WithContext("known_hosts", missing).
			Build()
	}
	db, err := knownhosts.NewDB(files...)
	if err != nil {
		return nil, nil, ferrors.AuthError("failed to load known_hosts").
			WithCause(err).
			WithContext("known_hosts", files).
			Build()
	}

	results, err := m.registry.CreateAuth(req.Options)
	if err != nil {
		return nil, nil, ferrors.AuthError("no usable SSH credentials").
			WithCause(err).
			WithContext("host", req.Host).
			Build()
	}
	methods := make([]ssh.AuthMethod, 0, len(results))
	for _, r := range results {
		methods = append(methods, r.Method)
	}
	release := func() {
		for _, r := range results {
			_ = r.Close()
		}
	}

	hostport := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))
	return &ssh.ClientConfig{
		User:              req.User,
		Auth:              methods,
		HostKeyCallback:   db.HostKeyCallback(),
		HostKeyAlgorithms: db.HostKeyAlgorithms(hostport),
		Timeout:           req.Timeout,
	}, release, nil
}

// ClassifyHandshakeError maps SSH dial failures onto error categories.
func ClassifyHandshakeError(err error, host string) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	switch {
	case knownhosts.IsHostKeyChanged(err):
		return ferrors.AuthError("remote host key changed").WithCause(err).WithContext("host", host).Fatal().Build()
	case knownhosts.IsHostUnknown(err):
		return ferrors.AuthError("remote host not in known_hosts").WithCause(err).WithContext("host", host).Build()
	case isAuthFailure(err):
		return ferrors.AuthError("SSH authentication failed").WithCause(err).WithContext("host", host).Build()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ferrors.NewError(ferrors.CategoryNetwork, "failed to reach remote host").
			WithCause(err).WithContext("host", host).Retryable().Build()
	}
	return ferrors.RemoteError("SSH connection failed").WithCause(err).WithContext("host", host).Build()
}

func isAuthFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "no supported methods remain")
}
