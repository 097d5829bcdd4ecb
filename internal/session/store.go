package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/state"
	"github.com/rickgao/marketdash/internal/storage"
)

// Authenticator is the backend surface the store needs.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.Session, error)
	CurrentUser(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
}

// Store holds the current session.
type Store struct {
	api     Authenticator
	persist storage.Persister
	logger  *slog.Logger
	metrics *metrics.Metrics

	current *state.Observable[*model.Session]
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics sets the counters the store reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a Store and restores the persisted session, if any.
// A persisted value that cannot be decoded is cleared.
func New(ctx context.Context, api Authenticator, persist storage.Persister, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		api:     api,
		persist: persist,
		logger:  logger,
		metrics: metrics.Default,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.current = state.New(s.restore(ctx))
	return s
}

// restore reads the persisted session for the initial state.
func (s *Store) restore(ctx context.Context) *model.Session {
	sess, err := s.persist.Load(ctx)
	switch {
	case err == nil:
		return sess
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn("discarding corrupt stored session", "error", err)
		s.clearStored(ctx)
		return nil
	default:
		s.logger.Error("failed to load stored session", "error", err)
		return nil
	}
}

// Login authenticates creds. On success the session is persisted before it
// becomes current. On failure neither the current nor the stored session changes.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	sess, err := s.api.Login(ctx, creds)
	if err != nil {
		s.metrics.RecordLogin(true)
		s.logger.Warn("login failed", "email", creds.Email, "error", err)
		return nil, err
	}

	if err := s.persist.Save(ctx, sess); err != nil {
		s.metrics.RecordLogin(true)
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.current.Set(sess)
	s.metrics.RecordLogin(false)
	s.logger.Info("logged in", "user_id", sess.ID, "email", sess.Email)
	return sess, nil
}

// Logout ends the session. The backend is called only when a session exists.
// The local session is cleared regardless of the backend result; the backend
// error, if any, is returned afterwards.
func (s *Store) Logout(ctx context.Context) error {
	token := s.token(ctx)

	var remoteErr error
	if token != "" {
		remoteErr = s.api.Logout(ctx, token)
		if remoteErr != nil {
			s.logger.Warn("remote logout failed", "error", remoteErr)
		}
	}

	s.current.Set(nil)
	s.clearStored(ctx)
	s.metrics.RecordLogout()
	s.logger.Info("logged out")

	return remoteErr
}

// token prefers the persisted session, falling back to the in-memory one.
func (s *Store) token(ctx context.Context) string {
	if stored, err := s.persist.Load(ctx); err == nil && stored.Token != "" {
		return stored.Token
	}
	if cur := s.current.Get(); cur != nil {
		return cur.Token
	}
	return ""
}

// CheckAuth revalidates the persisted session against the backend.
// It returns false when nothing is persisted or the backend rejects the token,
// in which case the session is cleared.
func (s *Store) CheckAuth(ctx context.Context) bool {
	stored, err := s.persist.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			s.logger.Warn("discarding corrupt stored session", "error", err)
			s.current.Set(nil)
			s.clearStored(ctx)
		}
		return false
	}

	user, err := s.api.CurrentUser(ctx, stored.Token)
	if err != nil {
		s.logger.Warn("auth check failed", "error", err)
		s.metrics.RecordAuthRejected()
		s.current.Set(nil)
		s.clearStored(ctx)
		return false
	}

	// GET /me may omit the token.
	if user.Token == "" {
		user.Token = stored.Token
	}

	if err := s.persist.Save(ctx, user); err != nil {
		s.logger.Error("failed to persist refreshed session", "error", err)
	}
	s.current.Set(user)
	return true
}

func (s *Store) clearStored(ctx context.Context) {
	if err := s.persist.Clear(ctx); err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}
}

// Current returns the current session, or nil.
func (s *Store) Current() *model.Session {
	return s.current.Get()
}

// IsAuthenticated reports whether a session is present.
func (s *Store) IsAuthenticated() bool {
	return s.current.Get() != nil
}

// Subscribe returns a channel of session changes, primed with the current value.
func (s *Store) Subscribe() (<-chan *model.Session, func()) {
	return s.current.Subscribe()
}
