// Package config loads the assistant configuration from ~/.neona/assist.yaml
// with NEONA_ASSIST_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names that override file values.
const (
	EnvAPIURL        = "NEONA_ASSIST_API_URL"
	EnvDBPath        = "NEONA_ASSIST_DB_PATH"
	EnvScope         = "NEONA_ASSIST_SCOPE"
	EnvProjectID     = "NEONA_ASSIST_PROJECT_ID"
	EnvClientTimeout = "NEONA_ASSIST_CLIENT_TIMEOUT"
	EnvStaleAfter    = "NEONA_ASSIST_STALE_AFTER"
	EnvPollInterval  = "NEONA_ASSIST_POLL_INTERVAL"
	EnvLogFile       = "NEONA_ASSIST_LOG_FILE"
	EnvCredentials   = "NEONA_ASSIST_CREDENTIALS_DIR"
)

// Config holds the assistant client configuration.
type Config struct {
	// APIURL is the orchestrator base URL.
	APIURL string `yaml:"api_url"`
	// DBPath is the SQLite file backing persisted state and the audit trail.
	DBPath string `yaml:"db_path"`
	// Scope namespaces persisted keys so several profiles can share one file.
	Scope string `yaml:"scope"`
	// ProjectID is the project bound at startup, if any.
	ProjectID string `yaml:"project_id"`
	// ClientTimeout bounds each orchestrator request.
	ClientTimeout time.Duration `yaml:"client_timeout"`
	// StaleAfter is how long fetched suggestions are trusted.
	StaleAfter time.Duration `yaml:"stale_after"`
	// PollInterval is how often the TUI checks suggestion freshness.
	PollInterval time.Duration `yaml:"poll_interval"`
	// LogFile receives logs; empty means stderr, or the default file in TUI mode.
	LogFile string `yaml:"log_file,omitempty"`
	// CredentialsDir holds credentials.json; empty means ~/.config/neona.
	CredentialsDir string `yaml:"credentials_dir,omitempty"`
}

// Dir returns ~/.neona, or ".neona" when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neona"
	}
	return filepath.Join(home, ".neona")
}

// DefaultPath returns ~/.neona/assist.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "assist.yaml")
}

// DefaultLogFile is where the TUI logs when no log file is configured.
func DefaultLogFile() string {
	return filepath.Join(Dir(), "assist.log")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIURL:        "http://127.0.0.1:7466",
		DBPath:        filepath.Join(Dir(), "assist.db"),
		Scope:         "default",
		ClientTimeout: 30 * time.Second,
		StaleAfter:    5 * time.Minute,
		PollInterval:  time.Minute,
	}
}

// Load reads path, applies environment overrides and validates the result.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvAPIURL:      &c.APIURL,
		EnvDBPath:      &c.DBPath,
		EnvScope:       &c.Scope,
		EnvProjectID:   &c.ProjectID,
		EnvLogFile:     &c.LogFile,
		EnvCredentials: &c.CredentialsDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := map[string]*time.Duration{
		EnvClientTimeout: &c.ClientTimeout,
		EnvStaleAfter:    &c.StaleAfter,
		EnvPollInterval:  &c.PollInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Scope == "" {
		return fmt.Errorf("scope must not be empty")
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("client_timeout must be positive")
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale_after must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// Save writes cfg to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
