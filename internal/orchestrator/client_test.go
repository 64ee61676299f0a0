package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, r chi.Router) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", WithTokenSource(func() string { return "tok" }), WithTimeout(5*time.Second))
}

func TestInterpretUtterance(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orchestrator/interpret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req InterpretRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "create a login story", req.Utterance)
		assert.Equal(t, "p1", req.ProjectID)
		assert.Len(t, req.ContextEntities, 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entities":[{"id":"s1","type":"story","title":"Login"}],
			"suggestedAction":{"type":"create_story","parameters":{"title":"Login"}},"autoSelect":true}`))
	})
	c := newTestServer(t, r)

	got, err := c.InterpretUtterance(context.Background(), InterpretRequest{
		Utterance:       "create a login story",
		ProjectID:       "p1",
		ContextEntities: []models.EntityRef{{ID: "e1", Type: "epic"}},
	})
	require.NoError(t, err)
	assert.True(t, got.AutoSelect)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "s1", got.Entities[0].ID)
	require.NotNil(t, got.SuggestedAction)
	assert.Equal(t, "create_story", got.SuggestedAction.Type)
}

func TestInterpretUtterance_EmptyEntitiesNeverNil(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orchestrator/interpret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"autoSelect":false}`))
	})
	got, err := newTestServer(t, r).InterpretUtterance(context.Background(), InterpretRequest{Utterance: "x", ProjectID: "p"})
	require.NoError(t, err)
	assert.NotNil(t, got.Entities)
}

func TestExecuteAction(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orchestrator/execute", func(w http.ResponseWriter, r *http.Request) {
		var req ExecuteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "create_story", req.Action.Type)
		w.Write([]byte(`{"success":true,"message":"Story created","data":{"id":"s9"}}`))
	})

	got, err := newTestServer(t, r).ExecuteAction(context.Background(), ExecuteRequest{
		Action:    models.ActionCommand{Type: "create_story"},
		ProjectID: "p1",
		UserID:    "u1",
	})
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "Story created", got.Message)
	assert.JSONEq(t, `{"id":"s9"}`, string(got.Data))
	assert.False(t, got.ExecutedAt.IsZero())
}

func TestGetSuggestions(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orchestrator/suggestions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p 1", r.URL.Query().Get("projectId"))
		w.Write([]byte(`{"suggestions":[{"id":"g1","projectId":"p 1","title":"Split story"}]}`))
	})

	got, err := newTestServer(t, r).GetSuggestions(context.Background(), "p 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
}

func TestAPIErrorMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orchestrator/execute", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Story title is required"}`))
	})
	r.Post("/orchestrator/interpret", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})
	c := newTestServer(t, r)

	_, err := c.ExecuteAction(context.Background(), ExecuteRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Story title is required", apiErr.Error())

	_, err = c.InterpretUtterance(context.Background(), InterpretRequest{})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/orchestrator/suggestions", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	c := newTestServer(t, r)
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetSuggestions(ctx, "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
