// Package store provides scoped key/value persistence for the assistant,
// backed by SQLite or memory.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultScope is used when no user scope is configured.
const DefaultScope = "default"

// Storage is a scoped key/value substrate. Values are opaque bytes; each
// SetItem replaces the whole value atomically.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// SQLite is a Storage on a local SQLite database.
type SQLite struct {
	db    *sql.DB
	scope string
}

// New opens (or creates) the database at dbPath and runs migrations.
// All keys are namespaced under scope.
func New(dbPath, scope string) (*SQLite, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if scope == "" {
		scope = DefaultScope
	}

	s := &SQLite{db: db, scope: scope}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Scope returns the namespace this store reads and writes.
func (s *SQLite) Scope() string {
	return s.scope
}

// migrate runs idempotent schema migrations.
func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_items (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (scope, key)
	);

	CREATE TABLE IF NOT EXISTS pdr (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		project_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pdr_scope_timestamp ON pdr(scope, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Key/Value Operations ---

// GetItem returns the value stored under key. ok is false when nothing is stored.
func (s *SQLite) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_items WHERE scope = ? AND key = ?`,
		s.scope, key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query item: %w", err)
	}
	return []byte(value), true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *SQLite) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_items (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *SQLite) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE scope = ? AND key = ?`, s.scope, key)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// --- PDR Operations ---

// PDREntry is a Process Decision Record for an executed action.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	ProjectID  string    `json:"project_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// WritePDR writes a Process Decision Record.
func (s *SQLite) WritePDR(ctx context.Context, entry *PDREntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdr (id, scope, action, inputs_hash, outcome, project_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, s.scope, entry.Action, entry.InputsHash, entry.Outcome, entry.ProjectID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert pdr: %w", err)
	}
	return nil
}

// ListPDR returns the most recent records for this scope, newest first.
func (s *SQLite) ListPDR(ctx context.Context, limit int) ([]PDREntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, project_id, details, timestamp FROM pdr WHERE scope = ? ORDER BY timestamp DESC LIMIT ?`,
		s.scope, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []PDREntry
	for rows.Next() {
		var e PDREntry
		var projectID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &projectID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		if projectID.Valid {
			e.ProjectID = projectID.String
		}
		if details.Valid {
			e.Details = details.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
