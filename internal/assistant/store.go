// Package assistant is the client-side state container for the project
// assistant: the intent/action pipeline, the suggestion cache, project
// scoping and the history ledger, persisted through a store.Storage.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/orchestrator"
	"github.com/fentz26/neona-assist/internal/store"
	"github.com/fentz26/neona-assist/internal/suggestions"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// timeNow is the clock used when no Options.Now is given.
var timeNow = time.Now

// persistTimeout bounds one write of the persisted subset. Writes run on the
// goroutine that made the change, after the state lock is released.
const persistTimeout = 5 * time.Second

// Recorder receives an audit record for each confirmed action.
type Recorder interface {
	RecordExecution(ctx context.Context, projectID string, cmd models.ActionCommand, result *models.ActionResult, execErr error) error
}

// Options configures a Store.
type Options struct {
	Client   orchestrator.Client
	Storage  store.Storage // defaults to an in-memory storage
	UserID   func() string // identity sent with executed actions
	Recorder Recorder      // optional
	Logger   *zap.Logger   // defaults to a no-op logger
	Now      func() time.Time
}

// Store owns the assistant state. All methods are safe for concurrent use;
// network calls run without holding the lock.
type Store struct {
	client    orchestrator.Client
	userID    func() string
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
	persister *store.Persister[persistedState]

	mu          sync.Mutex
	c           core
	generation  uint64
	lastEncoded []byte
	persistSeq  uint64
	subs        map[int]func(State)
	nextSub     int

	saveMu     sync.Mutex
	writtenSeq uint64

	fetches singleflight.Group
}

// New creates a Store and restores the persisted subset from storage.
// A failed restore is logged and the store starts from empty state.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("assistant: orchestrator client is required")
	}
	if opts.Storage == nil {
		opts.Storage = store.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = timeNow
	}
	if opts.UserID == nil {
		opts.UserID = func() string { return "" }
	}

	s := &Store{
		client:    opts.Client,
		userID:    opts.UserID,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       opts.Now,
		persister: newPersister(opts.Storage),
		subs:      make(map[int]func(State)),
	}
	s.c.ledger.Clear()
	s.c.cache.Reset()

	ps, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to restore assistant state", zap.Error(err))
	}
	s.c.ledger.Utterances = ps.UtteranceHistory
	s.c.dismissed = ps.dismissed
	if ps.SuggestionsLastFetched != nil {
		fetched := *ps.SuggestionsLastFetched
		s.c.cache.LastFetched = &fetched
	}
	if err == nil {
		s.lastEncoded, _ = s.persister.Encode(partialize(&s.c))
	}

	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.snapshot()
}

// Subscribe registers fn to receive the new state after every change.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock. When fn reports a change, the persisted
// subset is written if it differs from the last write and subscribers are
// notified, both outside the lock.
func (s *Store) update(fn func(c *core) bool) {
	s.mu.Lock()
	if !fn(&s.c) {
		s.mu.Unlock()
		return
	}
	s.c.cache.IsFetching = s.c.fetching > 0
	snap := s.c.snapshot()

	var data []byte
	var seq uint64
	encoded, err := s.persister.Encode(partialize(&s.c))
	if err != nil {
		s.logger.Error("failed to encode assistant state", zap.Error(err))
	} else if !bytes.Equal(encoded, s.lastEncoded) {
		s.lastEncoded = encoded
		s.persistSeq++
		seq = s.persistSeq
		data = encoded
	}

	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if data != nil {
		s.write(seq, data)
	}
	for _, sub := range subs {
		sub(snap)
	}
}

// write persists data unless a newer write already landed. Errors are logged.
func (s *Store) write(seq uint64, data []byte) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.writtenSeq {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Write(ctx, data); err != nil {
		s.logger.Warn("failed to persist assistant state", zap.Error(err))
		return
	}
	s.writtenSeq = seq
}

// DismissedSuggestions returns a copy of the dismissed id set.
func (s *Store) DismissedSuggestions() suggestions.DismissedSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.dismissed.Clone()
}
