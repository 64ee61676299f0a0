package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// unsetEnv clears every override for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvDBPath, EnvScope, EnvProjectID, EnvClientTimeout, EnvStaleAfter, EnvPollInterval, EnvLogFile, EnvCredentials} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadMissingFile(t *testing.T) {
	unsetEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://orchestrator.example.com
project_id: proj-9
stale_after: 2m
poll_interval: 15s
`), 0o600))
	unsetEnv(t)
	t.Setenv(EnvScope, "work")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://orchestrator.example.com", cfg.APIURL)
	assert.Equal(t, "proj-9", cfg.ProjectID)
	assert.Equal(t, 2*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, "work", cfg.Scope)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvAPIURL:        " http://localhost:9000 ",
		EnvClientTimeout: "5s",
		EnvPollInterval:  "",
	})))
	assert.Equal(t, "http://localhost:9000", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout)
	assert.Equal(t, time.Minute, cfg.PollInterval)

	err := cfg.ApplyEnv(envMap(map[string]string{EnvStaleAfter: "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvStaleAfter)

	require.NoError(t, cfg.ApplyEnv(noEnv))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.APIURL = "localhost:7466" }},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://example.com" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"empty scope", func(c *Config) { c.Scope = "" }},
		{"zero timeout", func(c *Config) { c.ClientTimeout = 0 }},
		{"negative stale", func(c *Config) { c.StaleAfter = -time.Second }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assist.yaml")
	cfg := DefaultConfig()
	cfg.ProjectID = "proj-1"
	cfg.StaleAfter = 90 * time.Second

	require.NoError(t, Save(path, cfg))

	unsetEnv(t)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "proj-1", loaded.ProjectID)
	assert.Equal(t, 90*time.Second, loaded.StaleAfter)

	require.Error(t, Save(path, nil))
}
