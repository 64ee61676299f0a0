package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/config"
	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/orchestrator"
	"github.com/fentz26/neona-assist/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrchestrator serves the three orchestrator endpoints.
type fakeOrchestrator struct {
	mu       sync.Mutex
	executed []orchestrator.ExecuteRequest
}

func (f *fakeOrchestrator) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/orchestrator/interpret", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.IntentResult{
			Intent:   "create_story",
			Entities: []models.EntityMatch{{ID: "story-1", Type: "story", Title: "Login"}},
			SuggestedAction: &models.ActionCommand{
				Type:        "create_story",
				Description: "Create login story",
			},
			AutoSelect: true,
		})
	})
	r.Post("/orchestrator/execute", func(w http.ResponseWriter, r *http.Request) {
		var req orchestrator.ExecuteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.executed = append(f.executed, req)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(models.ActionResult{Success: true, Message: "Story created"})
	})
	r.Get("/orchestrator/suggestions", func(w http.ResponseWriter, r *http.Request) {
		projectID := r.URL.Query().Get("projectId")
		json.NewEncoder(w).Encode(map[string]any{
			"suggestions": []models.AISuggestion{{ID: "sg-1", ProjectID: projectID, Title: "Split story"}},
		})
	})
	return r
}

type cliEnv struct {
	api    *fakeOrchestrator
	url    string
	dbPath string
	cfg    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	api := &fakeOrchestrator{}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv(config.EnvCredentials, dir)
	t.Setenv("NEONA_ASSIST_USER_ID", "cli-user")
	return &cliEnv{
		api:    api,
		url:    srv.URL,
		dbPath: filepath.Join(dir, "assist.db"),
		cfg:    filepath.Join(dir, "assist.yaml"),
	}
}

func (c *cliEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	askYes, askPick, suggestionsRefresh, ephemeral = false, "", false, false
	full := append([]string{"--config", c.cfg, "--api", c.url, "--db", c.dbPath}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.ExecuteContext(context.Background())
	shutdown()
	return err
}

func TestAskExecutesWithYes(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--project", "proj-1", "ask", "--yes", "create", "a", "login", "story"))

	c.api.mu.Lock()
	require.Len(t, c.api.executed, 1)
	assert.Equal(t, "proj-1", c.api.executed[0].ProjectID)
	assert.Equal(t, "cli-user", c.api.executed[0].UserID)
	c.api.mu.Unlock()

	db, err := store.New(c.dbPath, "default")
	require.NoError(t, err)
	defer db.Close()

	records, err := db.ListPDR(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "create_story", records[0].Action)
	assert.Equal(t, "success", records[0].Outcome)

	data, ok, err := db.GetItem(context.Background(), assistant.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "create a login story")
}

func TestAskEphemeralLeavesNoDatabase(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--ephemeral", "--project", "proj-1", "ask", "--yes", "create a login story"))

	c.api.mu.Lock()
	assert.Len(t, c.api.executed, 1)
	c.api.mu.Unlock()

	_, err := os.Stat(c.dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAskWithoutYesDoesNotExecute(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--project", "proj-1", "ask", "create a login story"))

	c.api.mu.Lock()
	defer c.api.mu.Unlock()
	assert.Empty(t, c.api.executed)
}

func TestAskRequiresProject(t *testing.T) {
	c := newCLIEnv(t)
	t.Setenv(config.EnvProjectID, "")

	err := c.run(t, "--project", "", "ask", "anything")
	require.ErrorIs(t, err, assistant.ErrNoActiveProject)
}

func TestSuggestionsDismissPersists(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--project", "proj-1", "suggestions", "list"))
	require.NoError(t, c.run(t, "suggestions", "dismiss", "sg-1"))

	db, err := store.New(c.dbPath, "default")
	require.NoError(t, err)
	defer db.Close()

	data, ok, err := db.GetItem(context.Background(), assistant.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"dismissedSuggestions":["sg-1"]`)
}

func TestSuggestionsAcceptUnknownID(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--project", "proj-1", "suggestions", "list"))
	err := c.run(t, "--project", "proj-1", "suggestions", "accept", "does-not-exist")
	require.ErrorIs(t, err, errSuggestionNotFound)

	require.NoError(t, c.run(t, "--project", "proj-1", "suggestions", "accept", "sg-1"))
}

func TestSuggestionsDismissBlankID(t *testing.T) {
	c := newCLIEnv(t)

	err := c.run(t, "suggestions", "dismiss", "")
	require.ErrorIs(t, err, assistant.ErrEmptySuggestionID)
}

func TestHistoryClear(t *testing.T) {
	c := newCLIEnv(t)

	require.NoError(t, c.run(t, "--project", "proj-1", "ask", "show my tasks"))
	require.NoError(t, c.run(t, "history", "show"))
	require.NoError(t, c.run(t, "history", "clear"))

	db, err := store.New(c.dbPath, "default")
	require.NoError(t, err)
	defer db.Close()

	data, _, err := db.GetItem(context.Background(), assistant.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"utteranceHistory":[]`)
}
