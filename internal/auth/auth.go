// Package auth reads the Neona CLI credentials and exposes the user identity
// and bearer token the assistant sends to the orchestrator.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// CredentialsFile is the file name inside the config directory.
	CredentialsFile = "credentials.json"
	// EnvUserID overrides the user id from the credentials file.
	EnvUserID = "NEONA_ASSIST_USER_ID"
	// EnvToken overrides the access token from the credentials file.
	EnvToken = "NEONA_ASSIST_TOKEN"

	expiryBuffer = 5 * time.Minute
)

// ErrNotAuthenticated is returned when no usable credentials are present.
var ErrNotAuthenticated = errors.New("not authenticated")

var timeNow = time.Now

// User represents the authenticated user.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Session represents an authentication session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Credentials stores the complete auth credentials.
type Credentials struct {
	Session   Session `json:"session"`
	CreatedAt int64   `json:"created_at"`
}

// Manager reads and caches the credentials file.
type Manager struct {
	configDir   string
	credentials *Credentials
	mu          sync.RWMutex
}

// DefaultConfigDir returns ~/.config/neona.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "neona"), nil
}

// NewManager creates a manager over configDir, or DefaultConfigDir when
// configDir is empty. A missing credentials file is not an error.
func NewManager(configDir string) (*Manager, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	m := &Manager{configDir: configDir}
	if err := m.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return m, nil
}

// Reload re-reads the credentials file.
func (m *Manager) Reload() error {
	data, err := os.ReadFile(m.credentialsPath())
	if err != nil {
		m.mu.Lock()
		m.credentials = nil
		m.mu.Unlock()
		return err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse %s: %w", m.credentialsPath(), err)
	}

	m.mu.Lock()
	m.credentials = &creds
	m.mu.Unlock()
	return nil
}

// IsAuthenticated checks if the stored session is still valid.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.credentials == nil {
		return false
	}

	// Treat tokens expiring within the buffer as expired.
	expiresAt := time.Unix(m.credentials.Session.ExpiresAt, 0)
	return timeNow().Before(expiresAt.Add(-expiryBuffer))
}

// GetUser returns the stored user, or nil.
func (m *Manager) GetUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.credentials == nil {
		return nil
	}
	user := m.credentials.Session.User
	return &user
}

// UserID returns the id sent with executed actions. The environment
// override wins over the credentials file.
func (m *Manager) UserID() string {
	if id := strings.TrimSpace(os.Getenv(EnvUserID)); id != "" {
		return id
	}
	if user := m.GetUser(); user != nil {
		return user.ID
	}
	return ""
}

// Token returns the bearer token for orchestrator requests, or "" when the
// session is missing or expired.
func (m *Manager) Token() string {
	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		return tok
	}
	if !m.IsAuthenticated() {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credentials.Session.AccessToken
}

// Require returns ErrNotAuthenticated when no user id can be resolved.
func (m *Manager) Require() error {
	if m.UserID() == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// Save writes creds to the credentials file.
func (m *Manager) Save(creds Credentials) error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if creds.CreatedAt == 0 {
		creds.CreatedAt = timeNow().Unix()
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.credentialsPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	m.mu.Lock()
	m.credentials = &creds
	m.mu.Unlock()
	return nil
}

// Logout clears the current session.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.credentials = nil
	m.mu.Unlock()

	if err := os.Remove(m.credentialsPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

func (m *Manager) credentialsPath() string {
	return filepath.Join(m.configDir, CredentialsFile)
}
