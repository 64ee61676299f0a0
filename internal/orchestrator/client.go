// Package orchestrator is the client for the backend service that interprets
// utterances, executes actions and produces proactive suggestions.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/google/uuid"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 30 * time.Second

// InterpretRequest asks the orchestrator to interpret one utterance.
type InterpretRequest struct {
	Utterance       string             `json:"utterance"`
	ProjectID       string             `json:"projectId"`
	ContextEntities []models.EntityRef `json:"contextEntities,omitempty"`
}

// ExecuteRequest asks the orchestrator to execute a confirmed action.
type ExecuteRequest struct {
	Action    models.ActionCommand `json:"action"`
	ProjectID string               `json:"projectId"`
	UserID    string               `json:"userId"`
}

// Client is the narrow contract the assistant depends on.
type Client interface {
	InterpretUtterance(ctx context.Context, req InterpretRequest) (*models.IntentResult, error)
	ExecuteAction(ctx context.Context, req ExecuteRequest) (*models.ActionResult, error)
	GetSuggestions(ctx context.Context, projectID string) ([]models.AISuggestion, error)
}

// TokenSource supplies the bearer token for each request. It may return "".
type TokenSource func() string

// HTTPClient wraps HTTP calls to the orchestrator API.
type HTTPClient struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides DefaultClientTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource sets the bearer token provider.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) {
		c.token = ts
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a new API client with timeout.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type interpretResponse struct {
	Intent          string                `json:"intent"`
	Entities        []models.EntityMatch  `json:"entities"`
	SuggestedAction *models.ActionCommand `json:"suggestedAction"`
	AutoSelect      bool                  `json:"autoSelect"`
}

// InterpretUtterance maps an utterance to candidate entities and an action.
func (c *HTTPClient) InterpretUtterance(ctx context.Context, req InterpretRequest) (*models.IntentResult, error) {
	var resp interpretResponse
	if err := c.do(ctx, http.MethodPost, "/orchestrator/interpret", req, &resp); err != nil {
		return nil, err
	}
	if resp.Entities == nil {
		resp.Entities = []models.EntityMatch{}
	}
	return &models.IntentResult{
		Intent:          resp.Intent,
		Entities:        resp.Entities,
		SuggestedAction: resp.SuggestedAction,
		AutoSelect:      resp.AutoSelect,
	}, nil
}

// ExecuteAction runs a confirmed action.
func (c *HTTPClient) ExecuteAction(ctx context.Context, req ExecuteRequest) (*models.ActionResult, error) {
	var result models.ActionResult
	if err := c.do(ctx, http.MethodPost, "/orchestrator/execute", req, &result); err != nil {
		return nil, err
	}
	if result.ExecutedAt.IsZero() {
		result.ExecutedAt = time.Now().UTC()
	}
	return &result, nil
}

// GetSuggestions fetches proactive suggestions for a project.
func (c *HTTPClient) GetSuggestions(ctx context.Context, projectID string) ([]models.AISuggestion, error) {
	var resp struct {
		Suggestions []models.AISuggestion `json:"suggestions"`
	}
	path := "/orchestrator/suggestions?projectId=" + url.QueryEscape(projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []models.AISuggestion{}
	}
	return resp.Suggestions, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
