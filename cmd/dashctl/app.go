package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/logging"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/render"
	"github.com/rickgao/marketdash/internal/session"
	"github.com/rickgao/marketdash/internal/storage"
)

// As a short-lived CLI, global flags are fine.
var (
	configPath = flag.String("config", defaultConfigPath(), "path to config file; defaults apply when it does not exist")
	width      = flag.Int("width", render.DefaultWidth, "terminal wrap width")
	plain      = flag.Bool("plain", false, "print raw markdown instead of styled output")
	verbose    = flag.Bool("v", false, "log at debug level")
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dashboard.yaml"
	}
	return filepath.Join(dir, "marketdash", "dashboard.yaml")
}

// loadConfig reads *configPath, falling back to defaults when it is missing.
func loadConfig() (*config.DashboardConfig, error) {
	cfg, err := config.LoadAndValidate(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// env holds what every command needs.
type env struct {
	cfg      *config.DashboardConfig
	logger   *slog.Logger
	logClose io.Closer
	persist  storage.Persister
	sessions *session.Store
	markets  *api.Client
	stock    *api.Client
	metrics  *metrics.Metrics
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Logs go to stderr so stdout only carries command output.
	logCfg := cfg.Logging
	logCfg.Level = "warn"
	if *verbose {
		logCfg.Level = "debug"
	}
	logger, logClose, err := logging.NewWithWriter(os.Stderr, logCfg)
	if err != nil {
		return nil, err
	}

	persist, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logClose.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	newClient := func(baseURL string) *api.Client {
		return api.NewClient(
			baseURL,
			api.WithLogger(logger),
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		)
	}

	m := metrics.New()
	return &env{
		cfg:      cfg,
		logger:   logger,
		logClose: logClose,
		persist:  persist,
		sessions: session.New(ctx, newClient(cfg.API.SessionURL), persist, logger, session.WithMetrics(m)),
		markets:  newClient(cfg.API.MarketsURL),
		stock:    newClient(cfg.API.StockURL),
		metrics:  m,
	}, nil
}

func (e *env) Close() {
	if err := e.persist.Close(); err != nil {
		e.logger.Warn("close storage", "error", err)
	}
	e.logClose.Close()
}

// printMarkdown writes md to w, styled for the terminal unless -plain is set.
func printMarkdown(w io.Writer, md string) {
	if *plain {
		fmt.Fprintln(w, md)
		return
	}
	out, err := render.Terminal(md, *width)
	if err != nil {
		fmt.Fprintln(w, md)
		return
	}
	fmt.Fprint(w, out)
}
