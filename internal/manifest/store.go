package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/logfields"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

// Default attribute names.
const (
	DefaultNumberKey = "Implementation-Version"
	DefaultBuildKey  = "Implementation-Build"
)

// Store persists the release version in a manifest file.
type Store struct {
	fs        afero.Fs
	path      string
	numberKey string
	buildKey  string
}

// Option customizes a Store.
type Option func(*Store)

// WithKeys overrides the attribute names holding the version number and build counter.
func WithKeys(numberKey, buildKey string) Option {
	return func(s *Store) {
		if numberKey != "" {
			s.numberKey = numberKey
		}
		if buildKey != "" {
			s.buildKey = buildKey
		}
	}
}

// NewStore creates a store for the manifest at path on fs.
func NewStore(fs afero.Fs, path string, opts ...Option) *Store {
	s := &Store{fs: fs, path: path, numberKey: DefaultNumberKey, buildKey: DefaultBuildKey}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the manifest location.
func (s *Store) Path() string { return s.path }

// Read returns the version currently recorded in the manifest.
func (s *Store) Read() (version.Version, error) {
	_, v, err := s.load()
	return v, err
}

// Increment bumps the build counter by one, durably writes the manifest and
// returns the new version. The file is on disk before Increment returns.
func (s *Store) Increment() (version.Version, error) {
	m, current, err := s.load()
	if err != nil {
		return version.Version{}, err
	}
	next := current.Next()
	if err := m.Set(s.buildKey, strconv.Itoa(next.Build)); err != nil {
		return version.Version{}, s.error("failed to update build counter", err).Build()
	}
	if err := s.write(m.Bytes()); err != nil {
		return version.Version{}, err
	}
	slog.Info("Build number increased", logfields.Path(s.path), logfields.ReleaseID(next.ReleaseID()), logfields.Build(next.Build))
	return next, nil
}

func (s *Store) error(msg string, cause error) *ferrors.ErrorBuilder {
	return ferrors.ManifestError(msg).WithCause(cause).WithContext("path", s.path)
}

func (s *Store) load() (*Manifest, version.Version, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, version.Version{}, s.error("failed to read manifest", err).Build()
	}
	m, err := Parse(data)
	if err != nil {
		return nil, version.Version{}, s.error("failed to parse manifest", err).Build()
	}

	number, ok := m.Get(s.numberKey)
	if !ok {
		return nil, version.Version{}, s.error("version number attribute missing", fmt.Errorf("no %s attribute", s.numberKey)).
			WithContext("key", s.numberKey).Build()
	}
	raw, ok := m.Get(s.buildKey)
	if !ok {
		return nil, version.Version{}, s.error("build number attribute missing", fmt.Errorf("no %s attribute", s.buildKey)).
			WithContext("key", s.buildKey).Build()
	}
	build, err := strconv.Atoi(raw)
	if err != nil {
		return nil, version.Version{}, s.error("build number is not an integer", err).WithContext("key", s.buildKey).Build()
	}

	v := version.Version{Number: number, Build: build}
	if err := v.Validate(); err != nil {
		return nil, version.Version{}, s.error("invalid version in manifest", err).Build()
	}
	return m, v, nil
}

// write replaces the manifest atomically: temp file in the same directory,
// fsync, rename, then a best-effort directory sync.
func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	mode := os.FileMode(0o644)
	if info, err := s.fs.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return s.error("failed to create temporary manifest", err).Build()
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return s.error("failed to write manifest", err).Build()
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return s.error("failed to sync manifest", err).Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return s.error("failed to close manifest", err).Build()
	}
	if err := s.fs.Chmod(tmpName, mode); err != nil {
		cleanup()
		return s.error("failed to set manifest permissions", err).Build()
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		cleanup()
		return s.error("failed to replace manifest", err).Build()
	}
	if d, err := s.fs.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
