package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "COTTARELEASE_"

// envFiles are tried in order; the first one present is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first existing .env file. Existing process environment
// variables are not overwritten. It returns the file that was loaded, if any.
func loadEnvFiles() (string, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return "", err
		}
		return name, nil
	}
	return "", nil
}

// applyEnvOverrides lets COTTARELEASE_* variables replace file values.
func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("PROJECT_ROOT", &cfg.ProjectRoot)
	str("MANIFEST", &cfg.Manifest.Path)
	str("REMOTE_USER", &cfg.Remote.User)
	str("REMOTE_LABEL", &cfg.Remote.Label)
	str("REMOTE_HOST", &cfg.Remote.Host)
	str("REMOTE_IDENTITY_FILE", &cfg.Remote.IdentityFile)
	str("REMOTE_KNOWN_HOSTS", &cfg.Remote.KnownHosts)
	str("REMOTE_COMMAND", &cfg.Remote.Command)
	str("GIT_AUTHOR_NAME", &cfg.Git.AuthorName)
	str("GIT_AUTHOR_EMAIL", &cfg.Git.AuthorEmail)
	str("METRICS_TEXTFILE", &cfg.Metrics.TextfilePath)

	if v := os.Getenv(EnvPrefix + "REMOTE_TRANSPORT"); v != "" {
		cfg.Remote.Transport = RemoteTransport(strings.ToLower(v))
	}
	if v := os.Getenv(EnvPrefix + "REMOTE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Remote.Port = port
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxRetries = n
		}
	}
}
