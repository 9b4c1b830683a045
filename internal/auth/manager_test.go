package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/skeema/knownhosts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"git.home.luguber.info/inful/cottarelease/internal/auth/providers"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

func hostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func identity(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestManager_ClientConfig(t *testing.T) {
	key := hostKey(t)
	known := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(known, []byte(knownhosts.Line([]string{"web.sourceforge.net"}, key)+"\n"), 0o600))

	req := Request{
		User:       "wolfdancer,cotta",
		Host:       "web.sourceforge.net",
		Port:       22,
		KnownHosts: []string{known},
		Options:    providers.Options{IdentityFile: identity(t)},
	}
	cfg, release, err := NewManager().ClientConfig(req)
	require.NoError(t, err)
	defer release()

	assert.Equal(t, "wolfdancer,cotta", cfg.User)
	assert.Len(t, cfg.Auth, 1)
	assert.Contains(t, cfg.HostKeyAlgorithms, ssh.KeyAlgoED25519)

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 22}
	assert.NoError(t, cfg.HostKeyCallback("web.sourceforge.net:22", addr, key))

	err = cfg.HostKeyCallback("web.sourceforge.net:22", addr, hostKey(t))
	require.Error(t, err)
	assert.True(t, knownhosts.IsHostKeyChanged(err))

	err = cfg.HostKeyCallback("other.example.org:22", addr, key)
	require.Error(t, err)
	assert.True(t, knownhosts.IsHostUnknown(err))
}

func TestManager_ClientConfigErrors(t *testing.T) {
	_, _, err := NewManager().ClientConfig(Request{
		Host:       "h",
		Port:       22,
		KnownHosts: []string{filepath.Join(t.TempDir(), "missing")},
		Options:    providers.Options{IdentityFile: identity(t)},
	})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))
	assert.ErrorContains(t, err, "known_hosts")

	known := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(known, nil, 0o600))
	_, _, err = NewManager().ClientConfig(Request{Host: "h", Port: 22, KnownHosts: []string{known}})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))
}

func TestManager_ClientConfigSkipsAbsentKnownHosts(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	key := hostKey(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "known_hosts"),
		[]byte(knownhosts.Line([]string{"web.sourceforge.net"}, key)+"\n"), 0o600))
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 22}

	for name, known := range map[string][]string{
		"default":           nil,
		"ssh default pair":  {"~/.ssh/known_hosts", "~/.ssh/known_hosts2"},
		"absent file first": {filepath.Join(home, "absent"), "~/.ssh/known_hosts"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg, release, err := NewManager().ClientConfig(Request{
				User:       "wolfdancer,cotta",
				Host:       "web.sourceforge.net",
				Port:       22,
				KnownHosts: known,
				Options:    providers.Options{IdentityFile: identity(t)},
			})
			require.NoError(t, err)
			defer release()
			assert.NoError(t, cfg.HostKeyCallback("web.sourceforge.net:22", addr, key))
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyHandshakeError(t *testing.T) {
	assert.NoError(t, ClassifyHandshakeError(nil, "h"))

	err := ClassifyHandshakeError(errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none publickey], no supported methods remain"), "h")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))

	err = ClassifyHandshakeError(&net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}, "h")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.True(t, ferrors.IsRetryable(err))

	err = ClassifyHandshakeError(errors.New("ssh: disconnect"), "h")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRemote))

	classified := ferrors.ConfigError("x").Build()
	assert.Same(t, classified, ClassifyHandshakeError(classified, "h"))
}
