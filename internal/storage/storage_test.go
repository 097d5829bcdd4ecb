package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/model"
)

// testPersister exercises the Persister contract against one driver.
func testPersister(t *testing.T, p Persister) {
	t.Helper()
	ctx := context.Background()

	if _, err := p.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() on empty storage error = %v, want ErrNotFound", err)
	}

	sess := &model.Session{ID: "7", Email: "a@b.c", Token: "jwt-1"}
	if err := p.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *sess {
		t.Errorf("Load() = %+v, want %+v", got, sess)
	}

	// Overwrite.
	sess2 := &model.Session{ID: "7", Email: "a@b.c", Token: "jwt-2"}
	if err := p.Save(ctx, sess2); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}
	got, err = p.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Token != "jwt-2" {
		t.Errorf("Token = %q, want %q", got.Token, "jwt-2")
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := p.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Clear error = %v, want ErrNotFound", err)
	}

	// Clearing twice is not an error.
	if err := p.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestMemory(t *testing.T) {
	p := NewMemory("user")
	defer p.Close()
	testPersister(t, p)

	t.Run("corrupt value", func(t *testing.T) {
		p.SetRaw([]byte("{not json"))
		if _, err := p.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
			t.Errorf("Load() error = %v, want ErrCorrupt", err)
		}
		if _, ok := p.Raw(); !ok {
			t.Error("Raw() should report the stored value")
		}
	})
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	p, err := NewFile(path, "user")
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer p.Close()
	testPersister(t, p)

	t.Run("file removed when empty", func(t *testing.T) {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Stat() error = %v, want not exist", err)
		}
	})

	t.Run("persists across instances", func(t *testing.T) {
		if err := p.Save(context.Background(), &model.Session{ID: "1", Token: "t"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		other, err := NewFile(path, "user")
		if err != nil {
			t.Fatalf("NewFile() error = %v", err)
		}
		got, err := other.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Token != "t" {
			t.Errorf("Token = %q, want %q", got.Token, "t")
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		other, err := NewFile(path, "other")
		if err != nil {
			t.Fatalf("NewFile() error = %v", err)
		}
		if _, err := other.Load(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
			t.Errorf("Load() error = %v, want ErrCorrupt", err)
		}
		if err := p.Clear(context.Background()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := p.Load(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() after Clear error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	p, err := NewSQLite(path, "user")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer p.Close()
	testPersister(t, p)
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		p, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverMemory, Key: "user"}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer p.Close()
		testPersister(t, p)
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.StorageConfig{
			Driver: config.DriverFile,
			Key:    "user",
			Path:   filepath.Join(t.TempDir(), "session.json"),
		}
		p, err := Open(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer p.Close()
		testPersister(t, p)
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(context.Background(), config.StorageConfig{Driver: "etcd"}, nil); err == nil {
			t.Error("Open() expected error for unknown driver")
		}
	})
}
