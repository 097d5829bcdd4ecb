package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds process-wide counters. Safe for concurrent use.
type Metrics struct {
	fetches    atomic.Uint64
	failures   atomic.Uint64
	superseded atomic.Uint64

	logins       atomic.Uint64
	loginErrors  atomic.Uint64
	logouts      atomic.Uint64
	authRejected atomic.Uint64

	proxyRequests atomic.Uint64
	proxyErrors   atomic.Uint64

	liveConnections atomic.Int32

	started time.Time
}

// New returns zeroed counters.
func New() *Metrics {
	return &Metrics{started: time.Now()}
}

// Default is the instance used when no Metrics is injected.
var Default = New()

// RecordFetch records a completed store fetch.
func (m *Metrics) RecordFetch(failed bool) {
	m.fetches.Add(1)
	if failed {
		m.failures.Add(1)
	}
}

// RecordSuperseded records a response discarded because a newer request was issued.
func (m *Metrics) RecordSuperseded() {
	m.superseded.Add(1)
}

// RecordLogin records a login attempt.
func (m *Metrics) RecordLogin(failed bool) {
	if failed {
		m.loginErrors.Add(1)
		return
	}
	m.logins.Add(1)
}

// RecordLogout records a logout.
func (m *Metrics) RecordLogout() {
	m.logouts.Add(1)
}

// RecordAuthRejected records a session check that cleared the session.
func (m *Metrics) RecordAuthRejected() {
	m.authRejected.Add(1)
}

// RecordProxy records a proxied request.
func (m *Metrics) RecordProxy(failed bool) {
	m.proxyRequests.Add(1)
	if failed {
		m.proxyErrors.Add(1)
	}
}

// IncrementConnections increments live connections by 1.
func (m *Metrics) IncrementConnections() {
	m.liveConnections.Add(1)
}

// DecrementConnections decrements live connections by 1.
func (m *Metrics) DecrementConnections() {
	m.liveConnections.Add(-1)
}

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	Fetches         uint64  `json:"fetches"`
	FetchFailures   uint64  `json:"fetch_failures"`
	Superseded      uint64  `json:"superseded"`
	Logins          uint64  `json:"logins"`
	LoginErrors     uint64  `json:"login_errors"`
	Logouts         uint64  `json:"logouts"`
	AuthRejected    uint64  `json:"auth_rejected"`
	ProxyRequests   uint64  `json:"proxy_requests"`
	ProxyErrors     uint64  `json:"proxy_errors"`
	LiveConnections int32   `json:"live_connections"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// Snapshot returns current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Fetches:         m.fetches.Load(),
		FetchFailures:   m.failures.Load(),
		Superseded:      m.superseded.Load(),
		Logins:          m.logins.Load(),
		LoginErrors:     m.loginErrors.Load(),
		Logouts:         m.logouts.Load(),
		AuthRejected:    m.authRejected.Load(),
		ProxyRequests:   m.proxyRequests.Load(),
		ProxyErrors:     m.proxyErrors.Load(),
		LiveConnections: m.liveConnections.Load(),
		UptimeSeconds:   time.Since(m.started).Seconds(),
	}
}
