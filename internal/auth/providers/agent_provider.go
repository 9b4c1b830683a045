package providers

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// AgentProvider authenticates with the keys held by a running ssh-agent.
type AgentProvider struct {
	dial func(socket string) (net.Conn, error)
}

// NewAgentProvider creates an agent provider dialing unix sockets.
func NewAgentProvider() *AgentProvider {
	return &AgentProvider{dial: func(socket string) (net.Conn, error) { return net.Dial("unix", socket) }}
}

// Name returns a human-readable name for this provider.
func (p *AgentProvider) Name() string { return "AgentProvider" }

// Enabled reports whether agent auth is requested.
func (p *AgentProvider) Enabled(opts Options) bool { return opts.UseAgent }

// CreateAuth connects to the agent socket.
func (p *AgentProvider) CreateAuth(opts Options) (ssh.AuthMethod, io.Closer, error) {
	socket := opts.AgentSocket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket == "" {
		return nil, nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := p.dial(socket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to ssh-agent at %s: %w", socket, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), conn, nil
}
