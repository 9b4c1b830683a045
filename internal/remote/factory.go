package remote

import (
	"os"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/cottarelease/internal/auth/providers"
	"git.home.luguber.info/inful/cottarelease/internal/config"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// PassphraseEnv holds the passphrase of an encrypted identity file.
const PassphraseEnv = "COTTARELEASE_SSH_PASSPHRASE"

// TargetFromConfig returns the remote login of cfg.
func TargetFromConfig(cfg *config.Config) Target {
	return Target{User: cfg.Remote.User, Label: cfg.Remote.Label, Host: cfg.Remote.Host, Port: cfg.Remote.Port}
}

// LayoutFromConfig returns the remote directories of cfg.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{BuildsDir: cfg.Remote.BuildsDir, ReportsDir: cfg.Remote.ReportsDir, JavadocDir: cfg.Remote.JavadocDir}
}

// NewCopierFromConfig builds the configured transport. The SSH transport
// also resolves ~/.ssh/config through lookup; pass nil to skip that.
func NewCopierFromConfig(cfg *config.Config, fs afero.Fs, lookup Lookup) (Copier, error) {
	target := TargetFromConfig(cfg)
	switch cfg.Remote.Transport {
	case config.TransportSSH, "":
		var known []string
		if cfg.Remote.KnownHosts != "" {
			known = []string{cfg.Remote.KnownHosts}
		}
		sshCfg := Resolve(SSHConfig{
			Target:     target,
			KnownHosts: known,
			Timeout:    cfg.RemoteTimeout(),
			Auth: providers.Options{
				IdentityFile: cfg.Remote.IdentityFile,
				Passphrase:   os.Getenv(PassphraseEnv),
				UseAgent:     cfg.Remote.UseAgent,
			},
		}, lookup)
		return NewSSHCopier(sshCfg, fs, nil), nil
	case config.TransportExec:
		return NewExecCopier(ExecConfig{
			Command:      cfg.Remote.Command,
			Target:       target,
			IdentityFile: cfg.Remote.IdentityFile,
		}, fs, nil), nil
	default:
		return nil, ferrors.ConfigError("unknown remote transport").
			WithContext("transport", string(cfg.Remote.Transport)).Build()
	}
}
