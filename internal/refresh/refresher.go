package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/query"
)

// Target is one refreshable store.
type Target struct {
	Name string
	// Refresh re-runs the last fetch. It reports whether anything ran and
	// the resulting error message.
	Refresh func(ctx context.Context) (ran bool, errMsg string)
}

// Refreshable is implemented by query stores.
type Refreshable[T any] interface {
	Name() string
	Refresh(ctx context.Context) (query.State[T], bool)
}

// FromStore adapts a query store to a Target.
func FromStore[T any](s Refreshable[T]) Target {
	return Target{
		Name: s.Name(),
		Refresh: func(ctx context.Context) (bool, string) {
			st, ok := s.Refresh(ctx)
			return ok, st.Error
		},
	}
}

// Refresher runs the refresh loop.
type Refresher struct {
	cfg     config.RefreshConfig
	targets []Target
	gate    func() bool
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Refresher. gate may be nil.
func New(cfg config.RefreshConfig, targets []Target, gate func() bool, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Refresher{
		cfg:     cfg,
		targets: targets,
		gate:    gate,
		logger:  logger,
	}
}

// Start begins the refresh loop. A zero interval disables it.
func (r *Refresher) Start(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		r.logger.Info("store refresh disabled")
		return nil
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("store refresh started",
		"interval", r.cfg.Interval,
		"concurrency", r.cfg.Concurrency,
		"targets", len(r.targets),
	)

	return nil
}

// Stop gracefully shuts down the loop.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("store refresh stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.RefreshAll(r.ctx)
		}
	}
}

// Result summarizes one refresh cycle.
type Result struct {
	Refreshed int
	Skipped   int
	Failed    int
}

// RefreshAll refreshes every target once.
func (r *Refresher) RefreshAll(ctx context.Context) Result {
	if r.gate != nil && !r.gate() {
		r.logger.Debug("refresh skipped, gate closed")
		return Result{Skipped: len(r.targets)}
	}

	start := time.Now()
	var refreshed, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, t := range r.targets {
		g.Go(func() error {
			tctx := gctx
			if r.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				tctx, cancel = context.WithTimeout(gctx, r.cfg.Timeout)
				defer cancel()
			}

			ran, errMsg := t.Refresh(tctx)
			switch {
			case !ran:
				skipped.Add(1)
			case errMsg != "":
				failed.Add(1)
				r.logger.Warn("refresh failed", "store", t.Name, "error", errMsg)
			default:
				refreshed.Add(1)
			}
			// Store errors stay in the store; never cancel siblings.
			return nil
		})
	}
	g.Wait()

	res := Result{
		Refreshed: int(refreshed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	r.logger.Info("refresh cycle complete",
		"refreshed", res.Refreshed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
	return res
}
