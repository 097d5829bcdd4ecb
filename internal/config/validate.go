package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)

// Validate checks that all required fields are set and values are valid.
func (c *DashboardConfig) Validate() error {
	if net.ParseIP(c.Server.Host) == nil && !hostnamePattern.MatchString(c.Server.Host) {
		return fmt.Errorf("server.host must be an IP address or hostname, got %q", c.Server.Host)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.LoginPath, "/") {
		return fmt.Errorf("server.login_path must start with /, got %q", c.Server.LoginPath)
	}

	if err := validateURL("api.session_url", c.API.SessionURL); err != nil {
		return err
	}
	if err := validateURL("api.markets_url", c.API.MarketsURL); err != nil {
		return err
	}
	if err := validateURL("api.stock_url", c.API.StockURL); err != nil {
		return err
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	for i, rule := range c.Proxy {
		if err := rule.validate(fmt.Sprintf("proxy[%d]", i)); err != nil {
			return err
		}
	}

	if c.Refresh.Interval < 0 {
		return errors.New("refresh.interval must be >= 0")
	}
	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	if s.Key == "" {
		return errors.New("storage.key is required")
	}
	switch s.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if s.Path == "" {
			return fmt.Errorf("storage.path is required for driver %s", s.Driver)
		}
	case DriverRedis:
		if s.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required")
		}
	case DriverPostgres:
		return s.Postgres.validate("storage.postgres")
	default:
		return fmt.Errorf("storage.driver %q is not supported", s.Driver)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (r *ProxyRule) validate(prefix string) error {
	if _, err := regexp.Compile(r.Pattern); err != nil || r.Pattern == "" {
		return fmt.Errorf("%s.pattern is not a valid regexp: %q", prefix, r.Pattern)
	}
	if err := validateURL(prefix+".target", r.Target); err != nil {
		return err
	}
	if r.Rewrite != nil {
		if _, err := regexp.Compile(r.Rewrite.From); err != nil {
			return fmt.Errorf("%s.rewrite.from is not a valid regexp: %q", prefix, r.Rewrite.From)
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	return nil
}
