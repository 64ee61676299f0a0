package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/orchestrator"
	"github.com/fentz26/neona-assist/internal/store"
	"github.com/stretchr/testify/require"
)

var _ orchestrator.Client = (*fakeClient)(nil)

// fakeClient is an orchestrator.Client whose responses are set per test.
type fakeClient struct {
	mu sync.Mutex

	interpret   func(ctx context.Context, req orchestrator.InterpretRequest) (*models.IntentResult, error)
	execute     func(ctx context.Context, req orchestrator.ExecuteRequest) (*models.ActionResult, error)
	suggestions func(ctx context.Context, projectID string) ([]models.AISuggestion, error)

	interpretCalls  []orchestrator.InterpretRequest
	executeCalls    []orchestrator.ExecuteRequest
	suggestionCalls []string
}

func (f *fakeClient) InterpretUtterance(ctx context.Context, req orchestrator.InterpretRequest) (*models.IntentResult, error) {
	f.mu.Lock()
	f.interpretCalls = append(f.interpretCalls, req)
	fn := f.interpret
	f.mu.Unlock()
	if fn == nil {
		return &models.IntentResult{Entities: []models.EntityMatch{}}, nil
	}
	return fn(ctx, req)
}

func (f *fakeClient) ExecuteAction(ctx context.Context, req orchestrator.ExecuteRequest) (*models.ActionResult, error) {
	f.mu.Lock()
	f.executeCalls = append(f.executeCalls, req)
	fn := f.execute
	f.mu.Unlock()
	if fn == nil {
		return &models.ActionResult{Success: true, Message: "ok", ExecutedAt: time.Now()}, nil
	}
	return fn(ctx, req)
}

func (f *fakeClient) GetSuggestions(ctx context.Context, projectID string) ([]models.AISuggestion, error) {
	f.mu.Lock()
	f.suggestionCalls = append(f.suggestionCalls, projectID)
	fn := f.suggestions
	f.mu.Unlock()
	if fn == nil {
		return []models.AISuggestion{}, nil
	}
	return fn(ctx, projectID)
}

func (f *fakeClient) calls() (interpret, execute, suggestions int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.interpretCalls), len(f.executeCalls), len(f.suggestionCalls)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordedExecution struct {
	projectID string
	cmd       models.ActionCommand
	result    *models.ActionResult
	err       error
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedExecution
}

func (r *fakeRecorder) RecordExecution(_ context.Context, projectID string, cmd models.ActionCommand, result *models.ActionResult, execErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedExecution{projectID, cmd, result, execErr})
	return nil
}

type testEnv struct {
	store   *Store
	client  *fakeClient
	storage store.Storage
	clock   *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		client:  &fakeClient{},
		storage: store.NewMemory(),
		clock:   newFakeClock(),
	}
	env.store = env.open(t)
	return env
}

// open builds a fresh Store over the env's storage, as a restart would.
func (e *testEnv) open(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), Options{
		Client:  e.client,
		Storage: e.storage,
		UserID:  func() string { return "user-1" },
		Now:     e.clock.Now,
	})
	require.NoError(t, err)
	return s
}
