package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("success replaces data", func(t *testing.T) {
		s := NewStore("test", []int{}, testLogger(), metrics.New())

		st := s.Run(ctx, func(context.Context) ([]int, error) { return []int{1, 2}, nil })
		if st.Loading {
			t.Error("Loading = true, want false")
		}
		if st.Error != "" {
			t.Errorf("Error = %q, want empty", st.Error)
		}
		if len(st.Data) != 2 {
			t.Errorf("Data = %v, want [1 2]", st.Data)
		}
		if st.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should be set")
		}
	})

	t.Run("failure keeps previous data", func(t *testing.T) {
		s := NewStore("test", 0, testLogger(), metrics.New())
		s.Run(ctx, func(context.Context) (int, error) { return 42, nil })

		st := s.Run(ctx, func(context.Context) (int, error) {
			return 0, &api.APIError{StatusCode: 500, Message: "HTTP error! status: 500"}
		})
		if st.Loading {
			t.Error("Loading = true, want false")
		}
		if st.Error != "HTTP error! status: 500" {
			t.Errorf("Error = %q, want %q", st.Error, "HTTP error! status: 500")
		}
		if st.Data != 42 {
			t.Errorf("Data = %d, want 42", st.Data)
		}
	})

	t.Run("new fetch clears error and sets loading", func(t *testing.T) {
		s := NewStore("test", 0, testLogger(), metrics.New())
		s.Run(ctx, func(context.Context) (int, error) { return 0, errors.New("first failure") })

		seen := make(chan State[int], 1)
		s.Run(ctx, func(context.Context) (int, error) {
			seen <- s.Get()
			return 1, nil
		})

		during := <-seen
		if !during.Loading {
			t.Error("Loading during fetch = false, want true")
		}
		if during.Error != "" {
			t.Errorf("Error during fetch = %q, want empty", during.Error)
		}
	})

	t.Run("calls fetch exactly once", func(t *testing.T) {
		s := NewStore("test", 0, testLogger(), metrics.New())
		calls := 0
		s.Run(ctx, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestStore_Supersession(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	s := NewStore("test", "", testLogger(), m)

	release := make(chan struct{})
	started := make(chan struct{})
	firstDone := make(chan State[string])

	go func() {
		firstDone <- s.Run(ctx, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started

	second := s.Run(ctx, func(context.Context) (string, error) { return "fresh", nil })
	if second.Data != "fresh" {
		t.Fatalf("second Data = %q, want fresh", second.Data)
	}

	close(release)
	first := <-firstDone

	if first.Data != "fresh" {
		t.Errorf("superseded Run returned Data = %q, want fresh", first.Data)
	}
	if !first.Superseded {
		t.Error("superseded Run should report Superseded")
	}
	if second.Superseded {
		t.Error("current Run should not report Superseded")
	}
	if got := s.Get(); got.Data != "fresh" || got.Loading || got.Superseded {
		t.Errorf("final state = %+v, want fresh and not loading", got)
	}
	if m.Snapshot().Superseded != 1 {
		t.Errorf("Superseded = %d, want 1", m.Snapshot().Superseded)
	}
}

func TestStore_SupersessionCancelsContext(t *testing.T) {
	s := NewStore("test", 0, testLogger(), metrics.New())

	started := make(chan struct{})
	canceled := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.Run(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			select {
			case <-ctx.Done():
				canceled <- ctx.Err()
			case <-time.After(5 * time.Second):
				canceled <- nil
			}
			return 0, ctx.Err()
		})
	}()
	<-started

	s.Run(context.Background(), func(context.Context) (int, error) { return 7, nil })
	<-done

	if err := <-canceled; !errors.Is(err, context.Canceled) {
		t.Errorf("superseded context error = %v, want context.Canceled", err)
	}
	if got := s.Get(); got.Data != 7 || got.Error != "" {
		t.Errorf("state = %+v, want data 7 and no error", got)
	}
}

func TestStore_RefreshAndReset(t *testing.T) {
	ctx := context.Background()
	s := NewStore("test", -1, testLogger(), metrics.New())

	if _, ok := s.Refresh(ctx); ok {
		t.Error("Refresh() before any fetch should report false")
	}

	n := 0
	s.Run(ctx, func(context.Context) (int, error) {
		n++
		return n, nil
	})

	st, ok := s.Refresh(ctx)
	if !ok || st.Data != 2 {
		t.Errorf("Refresh() = %+v, %v, want data 2", st, ok)
	}

	s.Reset()
	if got := s.Get(); got.Data != -1 || got.Loading || got.Error != "" {
		t.Errorf("after Reset = %+v, want initial", got)
	}
	if _, ok := s.Refresh(ctx); ok {
		t.Error("Refresh() after Reset should report false")
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore("test", 0, testLogger(), metrics.New())
	ch, cancel := s.Subscribe()
	defer cancel()

	<-ch // initial
	s.Run(context.Background(), func(context.Context) (int, error) { return 3, nil })

	got := <-ch
	if got.Data != 3 || got.Loading {
		t.Errorf("latest = %+v, want data 3 not loading", got)
	}
}
