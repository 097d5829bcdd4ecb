// Package metrics provides lightweight counters for monitoring.
//
// Key metrics:
//   - Store fetches, failures and superseded responses
//   - Logins, logouts and failed session checks
//   - Proxy requests and upstream errors
//   - Live connections
//
// A Snapshot is served on /health.
package metrics
