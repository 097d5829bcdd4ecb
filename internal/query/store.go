package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/state"
)

// State is a snapshot of a store.
type State[T any] struct {
	Data       T         `json:"data"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
	// Superseded is set only on the value returned by a Run whose result was
	// discarded; Data then belongs to a newer request.
	Superseded bool      `json:"superseded,omitempty"`
}

// FetchFunc performs one request.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Store holds the result of the latest fetch of one query kind.
type Store[T any] struct {
	name    string
	initial T
	logger  *slog.Logger
	metrics *metrics.Metrics

	state *state.Observable[State[T]]

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	last   FetchFunc[T]
}

// NewStore creates a store holding initial until the first successful fetch.
func NewStore[T any](name string, initial T, logger *slog.Logger, m *metrics.Metrics) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Default
	}
	return &Store[T]{
		name:    name,
		initial: initial,
		logger:  logger.With("store", name),
		metrics: m,
		state:   state.New(State[T]{Data: initial}),
	}
}

// Name returns the store name.
func (s *Store[T]) Name() string {
	return s.name
}

// Run performs fetch as the newest generation and returns the resulting state.
// If a later Run or Reset starts before fetch returns, its result is discarded
// and the state current at that point is returned with Superseded set.
func (s *Store[T]) Run(ctx context.Context, fetch FetchFunc[T]) State[T] {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.last = fetch
	s.state.Update(func(st State[T]) State[T] {
		st.Loading = true
		st.Error = ""
		st.Generation = gen
		return st
	})
	s.mu.Unlock()
	defer cancel()

	start := time.Now()
	data, err := fetch(runCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.metrics.RecordSuperseded()
		s.logger.Debug("discarding superseded response", "generation", gen, "current", s.gen)
		st := s.state.Get()
		st.Superseded = true
		return st
	}
	s.cancel = nil

	s.metrics.RecordFetch(err != nil)
	return s.state.Update(func(st State[T]) State[T] {
		st.Loading = false
		if err != nil {
			st.Error = api.MessageOf(err)
			s.logger.Warn("fetch failed", "error", err, "duration", time.Since(start))
			return st
		}
		st.Data = data
		st.UpdatedAt = time.Now()
		s.logger.Debug("fetch complete", "duration", time.Since(start))
		return st
	})
}

// Refresh re-runs the last fetch. It reports false when nothing has been fetched yet.
func (s *Store[T]) Refresh(ctx context.Context) (State[T], bool) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return s.state.Get(), false
	}
	return s.Run(ctx, last), true
}

// Reset cancels any fetch in flight and restores the initial state.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.last = nil
	s.state.Set(State[T]{Data: s.initial, Generation: s.gen})
}

// Get returns the current state.
func (s *Store[T]) Get() State[T] {
	return s.state.Get()
}

// Subscribe returns a channel of state changes, primed with the current state.
func (s *Store[T]) Subscribe() (<-chan State[T], func()) {
	return s.state.Subscribe()
}
