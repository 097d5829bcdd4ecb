package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/guard"
	"github.com/rickgao/marketdash/internal/live"
	"github.com/rickgao/marketdash/internal/logging"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/proxy"
	"github.com/rickgao/marketdash/internal/query"
	"github.com/rickgao/marketdash/internal/refresh"
	"github.com/rickgao/marketdash/internal/session"
	"github.com/rickgao/marketdash/internal/storage"
	"github.com/rickgao/marketdash/internal/version"
	"github.com/rickgao/marketdash/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	host := flag.String("host", "", "listen host (overrides server.host)")
	port := flag.Int("port", 0, "listen port (overrides server.port)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	// Set up structured logging
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("dashboard failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	logger.Info("dashboard stopped")
	logCloser.Close()
}

func run(ctx context.Context, cfg *config.DashboardConfig, logger *slog.Logger) error {
	m := metrics.Default

	// Open session storage
	logger.Info("opening session storage", "driver", cfg.Storage.Driver)
	persist, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer persist.Close()

	// One API client per backend
	newClient := func(baseURL string) *api.Client {
		return api.NewClient(
			baseURL,
			api.WithLogger(logger),
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		)
	}
	sessionClient := newClient(cfg.API.SessionURL)
	marketsClient := newClient(cfg.API.MarketsURL)
	stockClient := newClient(cfg.API.StockURL)

	// Restore and revalidate the session
	sessions := session.New(ctx, sessionClient, persist, logger, session.WithMetrics(m))
	if sessions.CheckAuth(ctx) {
		logger.Info("session restored", "email", sessions.Current().Email)
	} else {
		logger.Info("no valid session, login required")
	}

	markets := query.NewMarketStore(marketsClient, logger, m)
	series := query.NewSeriesStore(marketsClient, logger, m)
	chart := query.NewChartStore(stockClient, logger, m, query.WithHealthCheck(cfg.API.ChartHealth))

	px, err := proxy.New(cfg.Proxy, logger, m)
	if err != nil {
		return fmt.Errorf("create proxy: %w", err)
	}

	hub := live.NewHub(live.DefaultHubConfig(), logger, m)

	app := &web.App{
		Config:  cfg,
		Session: sessions,
		Markets: markets,
		Series:  series,
		Chart:   chart,
		Hub:     hub,
		Guard:   guard.New(persist, cfg.Server.LoginPath, cfg.Server.PublicPaths, logger),
		Proxy:   px,
		Metrics: m,
		Logger:  logger,
	}

	refresher := refresh.New(cfg.Refresh, []refresh.Target{
		refresh.FromStore[model.MarketPage](markets),
		refresh.FromStore[[]model.StockBar](series),
		refresh.FromStore[model.StockChart](chart),
	}, sessions.IsAuthenticated, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           web.NewHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("dashboard listening",
			"url", "http://"+cfg.Server.Addr()+cfg.Server.LoginPath,
			"proxy_rules", len(px.Rules()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return app.Watch(gctx)
	})

	if err := refresher.Start(gctx); err != nil {
		return fmt.Errorf("start refresh: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Warn("refresh did not stop in time", "error", err)
		}
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
