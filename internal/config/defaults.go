package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5173
	DefaultLoginPath       = "/login"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSessionURL      = "http://localhost:4000/api/v1"
	DefaultMarketsURL      = "http://localhost:4000"
	DefaultStockURL        = "http://localhost:8000"
	DefaultAPITimeout      = 30 * time.Second
	DefaultRetryBackoff    = 1 * time.Second
	DefaultStorageDriver   = DriverFile
	DefaultStorageKey      = "user"
	DefaultStorageTimeout  = 5 * time.Second
	DefaultRedisAddr       = "localhost:6379"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultRefreshConc     = 4
	DefaultRefreshTimeout  = 30 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 28
)

// Storage driver names.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultPublicPaths are reachable without a session besides the login path.
var DefaultPublicPaths = []string{"/health", "/logout", "/static/"}

func (c *DashboardConfig) applyDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LoginPath == "" {
		c.Server.LoginPath = DefaultLoginPath
	}
	if c.Server.PublicPaths == nil {
		c.Server.PublicPaths = append([]string(nil), DefaultPublicPaths...)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// API defaults
	if c.API.SessionURL == "" {
		c.API.SessionURL = DefaultSessionURL
	}
	if c.API.MarketsURL == "" {
		c.API.MarketsURL = DefaultMarketsURL
	}
	if c.API.StockURL == "" {
		c.API.StockURL = DefaultStockURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath(c.Storage.Driver)
	}
	if c.Storage.Timeout == 0 {
		c.Storage.Timeout = DefaultStorageTimeout
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = DefaultRedisAddr
	}
	applyDBDefaults(&c.Storage.Postgres)

	// Refresh defaults
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = DefaultRefreshConc
	}
	if c.Refresh.Timeout == 0 {
		c.Refresh.Timeout = DefaultRefreshTimeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

// defaultStoragePath places the session under the user config dir.
func defaultStoragePath(driver string) string {
	name := "session.json"
	if driver == DriverSQLite {
		name = "session.db"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "marketdash", name)
}
