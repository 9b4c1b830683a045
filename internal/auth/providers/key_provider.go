package providers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyFileProvider authenticates with a private key file.
type KeyFileProvider struct{}

// NewKeyFileProvider creates a key file provider.
func NewKeyFileProvider() *KeyFileProvider { return &KeyFileProvider{} }

// Name returns a human-readable name for this provider.
func (p *KeyFileProvider) Name() string { return "KeyFileProvider" }

// Enabled reports whether an identity file is configured.
func (p *KeyFileProvider) Enabled(opts Options) bool { return opts.IdentityFile != "" }

// CreateAuth loads and parses the key.
func (p *KeyFileProvider) CreateAuth(opts Options) (ssh.AuthMethod, io.Closer, error) {
	keyPath := ExpandHome(opts.IdentityFile)
	// #nosec G304 -- key path comes from the release configuration
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
	}

	var signer ssh.Signer
	if opts.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(opts.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, nil, fmt.Errorf("SSH key %s is encrypted: load it into ssh-agent or set a passphrase", keyPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse SSH key %s: %w", keyPath, err)
	}
	return ssh.PublicKeys(signer), nil, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
