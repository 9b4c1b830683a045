package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete release configuration, loaded once at startup and passed
// to every driver.
type Config struct {
	ProjectRoot string          `yaml:"project_root"`
	Manifest    ManifestConfig  `yaml:"manifest"`
	Artifacts   ArtifactsConfig `yaml:"artifacts"`
	Git         GitConfig       `yaml:"git"`
	Remote      RemoteConfig    `yaml:"remote"`
	Retry       RetryConfig     `yaml:"retry"`
	History     HistoryConfig   `yaml:"history"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// ManifestConfig locates the build counter.
type ManifestConfig struct {
	Path      string `yaml:"path"`
	NumberKey string `yaml:"number_key,omitempty"`
	BuildKey  string `yaml:"build_key,omitempty"`
}

// ArtifactsConfig describes the local build outputs.
type ArtifactsConfig struct {
	DistDir     string   `yaml:"dist_dir"`
	Product     string   `yaml:"product"`
	Variants    []string `yaml:"variants"` // "" is the core library
	ReportDir   string   `yaml:"report_dir"`
	JavadocDirs []string `yaml:"javadoc_dirs"`
}

// GitConfig carries the commit author. Empty values fall back to git's user config.
type GitConfig struct {
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// RemoteTransport selects the remote copy implementation.
type RemoteTransport string

const (
	TransportSSH  RemoteTransport = "ssh"  // native SCP over golang.org/x/crypto/ssh
	TransportExec RemoteTransport = "exec" // external scp/pscp binary
)

// RemoteConfig describes the release host and its directory layout.
type RemoteConfig struct {
	Transport    RemoteTransport `yaml:"transport"`
	User         string          `yaml:"user"`
	Label        string          `yaml:"label,omitempty"` // SourceForge project shell label: user,label@host
	Host         string          `yaml:"host"`
	Port         int             `yaml:"port,omitempty"`
	IdentityFile string          `yaml:"identity_file,omitempty"`
	KnownHosts   string          `yaml:"known_hosts,omitempty"`
	UseAgent     bool            `yaml:"use_agent"`
	Command      string          `yaml:"command,omitempty"` // exec transport only
	Timeout      string          `yaml:"timeout,omitempty"`
	BuildsDir    string          `yaml:"builds_dir"`
	ReportsDir   string          `yaml:"reports_dir"`
	JavadocDir   string          `yaml:"javadoc_dir"`
}

// HistoryConfig controls the release history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty"`
}

// Load loads configuration from the specified file, applying .env files,
// environment variable expansion, COTTARELEASE_* overrides and defaults.
// An empty configPath skips the file and builds the configuration from the
// environment alone.
func Load(configPath string) (*Config, error) {
	if loaded, err := loadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file could not be loaded: %v\n", err)
	} else if loaded != "" {
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", loaded)
	}

	var cfg Config
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns the configuration matching the historical SourceForge release layout.
func Example() *Config {
	cfg := &Config{
		ProjectRoot: ".",
		Git:         GitConfig{AuthorName: "${GIT_AUTHOR_NAME}", AuthorEmail: "${GIT_AUTHOR_EMAIL}"},
		Remote: RemoteConfig{
			Transport:  TransportSSH,
			User:       "wolfdancer",
			Label:      "cotta",
			Host:       "web.sourceforge.net",
			Port:       22,
			UseAgent:   true,
			BuildsDir:  "/home/groups/c/co/cotta/htdocs/builds",
			ReportsDir: "/home/groups/c/co/cotta/htdocs/reports",
			JavadocDir: "/home/groups/c/co/cotta/htdocs/javadoc",
		},
		History: HistoryConfig{Enabled: true},
	}
	_ = applyDefaults(cfg)
	// Keep the example portable; Load resolves the root again.
	cfg.ProjectRoot = "."
	return cfg
}

// path resolves p against the project root.
func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectRoot, filepath.FromSlash(p))
}

// ManifestPath returns the absolute manifest location.
func (c *Config) ManifestPath() string { return c.path(c.Manifest.Path) }

// DistDir returns the absolute directory holding the build outputs.
func (c *Config) DistDir() string { return c.path(c.Artifacts.DistDir) }

// ReportDir returns the absolute test/coverage report directory.
func (c *Config) ReportDir() string { return c.path(c.Artifacts.ReportDir) }

// JavadocDirs returns the absolute documentation directories in upload order.
func (c *Config) JavadocDirs() []string {
	dirs := make([]string, 0, len(c.Artifacts.JavadocDirs))
	for _, d := range c.Artifacts.JavadocDirs {
		dirs = append(dirs, c.path(d))
	}
	return dirs
}

// HistoryPath returns the absolute history database location.
func (c *Config) HistoryPath() string { return c.path(c.History.Path) }

// RemoteTimeout returns the connection timeout for remote transfers.
func (c *Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return defaultRemoteTimeout
	}
	return d
}
