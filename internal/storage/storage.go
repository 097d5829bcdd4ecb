package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/model"
)

var (
	// ErrNotFound is returned by Load when no session is stored.
	ErrNotFound = errors.New("session not found")

	// ErrCorrupt is returned by Load when the stored value cannot be decoded.
	ErrCorrupt = errors.New("stored session is corrupt")
)

// Persister stores at most one session.
type Persister interface {
	// Load returns the stored session, ErrNotFound when none is stored, or
	// an error wrapping ErrCorrupt when the value does not decode.
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Clear(ctx context.Context) error
	Close() error
}

// backend is the raw key/value operation set each driver provides.
// get must return ErrNotFound for a missing key.
type backend interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte) error
	del(ctx context.Context, key string) error
	close() error
}

// store adapts a backend to Persister: JSON encoding, key and per-call timeout.
type store struct {
	b       backend
	key     string
	timeout time.Duration
}

func newStore(b backend, key string, timeout time.Duration) *store {
	if key == "" {
		key = config.DefaultStorageKey
	}
	return &store{b: b, key: key, timeout: timeout}
}

func (s *store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *store) Load(ctx context.Context) (*model.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.b.get(ctx, s.key)
	if err != nil {
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &sess, nil
}

func (s *store) Save(ctx context.Context, sess *model.Session) error {
	if sess == nil {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.b.set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *store) Clear(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.b.del(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *store) Close() error {
	return s.b.close()
}

// Open creates the Persister selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Persister, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		b   backend
		err error
	)
	switch cfg.Driver {
	case config.DriverFile, "":
		b, err = newFileBackend(cfg.Path)
	case config.DriverSQLite:
		b, err = newSQLiteBackend(cfg.Path)
	case config.DriverRedis:
		b, err = newRedisBackend(ctx, cfg.Redis)
	case config.DriverPostgres:
		b, err = newPostgresBackend(ctx, cfg.Postgres)
	case config.DriverMemory:
		b = newMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}

	logger.Info("session storage opened", "driver", cfg.Driver, "key", cfg.Key)
	return newStore(b, cfg.Key, cfg.Timeout), nil
}
