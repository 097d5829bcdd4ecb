package config

import (
	"net"
	"strconv"
	"time"
)

// DashboardConfig is the root configuration shared by the dashboard server and dashctl.
type DashboardConfig struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Proxy   []ProxyRule   `yaml:"proxy"`
	Refresh RefreshConfig `yaml:"refresh"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the local dashboard HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"` // bind address; 0.0.0.0 exposes the shared session
	Port            int           `yaml:"port"`
	LoginPath       string        `yaml:"login_path"`
	PublicPaths     []string      `yaml:"public_paths"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// APIConfig holds backend endpoints. Each base URL gets its own client.
type APIConfig struct {
	SessionURL   string        `yaml:"session_url"` // serves /login, /me, /logout
	MarketsURL   string        `yaml:"markets_url"` // serves /markets/query, /markets/querystock
	StockURL     string        `yaml:"stock_url"`   // serves /health, /api/stock/{ticker}
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	ChartHealth  bool          `yaml:"chart_health_check"` // probe /health before chart requests
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Driver   string        `yaml:"driver"` // file, sqlite, redis, postgres, memory
	Key      string        `yaml:"key"`
	Path     string        `yaml:"path"` // file and sqlite drivers
	Redis    RedisConfig   `yaml:"redis"`
	Postgres DBConfig      `yaml:"postgres"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RedisConfig holds a Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ProxyRule forwards paths matching Pattern to Target.
type ProxyRule struct {
	Pattern string         `yaml:"pattern"`
	Target  string         `yaml:"target"`
	Rewrite *RewriteConfig `yaml:"rewrite"`
}

// RewriteConfig replaces the first match of From in the request path with To.
type RewriteConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RefreshConfig holds periodic store refresh settings. Zero interval disables it.
type RefreshConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig holds log level, format and optional rotating file output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}
