// Package providers supplies SSH authentication methods for remote transfers.
package providers

import (
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// Options carries the authentication settings of a remote host.
type Options struct {
	IdentityFile string // private key path; empty skips key file auth
	Passphrase   string // optional passphrase for IdentityFile
	UseAgent     bool
	AgentSocket  string // defaults to $SSH_AUTH_SOCK
}

// AuthProvider turns Options into an ssh.AuthMethod.
type AuthProvider interface {
	// Name returns a human-readable name for this provider (for logging/debugging).
	Name() string

	// Enabled reports whether the provider applies to opts.
	Enabled(opts Options) bool

	// CreateAuth creates the auth method. The returned closer, if any, must be
	// closed once the SSH connection is done.
	CreateAuth(opts Options) (ssh.AuthMethod, io.Closer, error)
}

// ProviderResult is an auth method together with its origin.
type ProviderResult struct {
	Method   ssh.AuthMethod
	Provider string
	closer   io.Closer
}

// Close releases resources held by the method.
func (r ProviderResult) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// AuthProviderRegistry holds providers in the order their methods are offered.
type AuthProviderRegistry struct {
	providers []AuthProvider
}

// NewAuthProviderRegistry creates a registry offering the agent first, then the key file.
func NewAuthProviderRegistry() *AuthProviderRegistry {
	registry := &AuthProviderRegistry{}
	registry.Register(NewAgentProvider())
	registry.Register(NewKeyFileProvider())
	return registry
}

// Register appends a provider.
func (r *AuthProviderRegistry) Register(provider AuthProvider) {
	r.providers = append(r.providers, provider)
}

// Providers returns the registered providers in order.
func (r *AuthProviderRegistry) Providers() []AuthProvider {
	return append([]AuthProvider(nil), r.providers...)
}

// CreateAuth collects the methods of every enabled provider. A failing
// provider is an error, and so is having no enabled provider.
func (r *AuthProviderRegistry) CreateAuth(opts Options) ([]ProviderResult, error) {
	var results []ProviderResult
	for _, p := range r.providers {
		if !p.Enabled(opts) {
			continue
		}
		method, closer, err := p.CreateAuth(opts)
		if err != nil {
			for _, res := range results {
				_ = res.Close()
			}
			return nil, &AuthError{Provider: p.Name(), Message: "failed to create authentication", Cause: err}
		}
		results = append(results, ProviderResult{Method: method, Provider: p.Name(), closer: closer})
	}
	if len(results) == 0 {
		return nil, &AuthError{Message: "no authentication method configured (enable use_agent or set identity_file)"}
	}
	return results, nil
}

// AuthError represents an authentication-related error.
type AuthError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	prefix := "auth error"
	if e.Provider != "" {
		prefix = fmt.Sprintf("auth error (%s)", e.Provider)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}
