package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// entry is one key/value row. Shared by the sqlite and postgres drivers.
type entry struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv_entries" }

type sqliteBackend struct {
	db *gorm.DB
}

func newSQLiteBackend(path string) (*sqliteBackend, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	// Pure Go driver, no cgo.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

// NewSQLite returns a Persister backed by the SQLite file at path.
func NewSQLite(path, key string) (Persister, error) {
	b, err := newSQLiteBackend(path)
	if err != nil {
		return nil, err
	}
	return newStore(b, key, 0), nil
}

func (s *sqliteBackend) get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).First(&e, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(e.Value), nil
}

func (s *sqliteBackend) set(ctx context.Context, key string, value []byte) error {
	e := entry{Name: key, Value: string(value), UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&e).Error
}

func (s *sqliteBackend) del(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("name = ?", key).Delete(&entry{}).Error
}

func (s *sqliteBackend) close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
