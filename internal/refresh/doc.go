// Package refresh periodically re-runs the last query of each store.
//
// On every tick all targets are refreshed concurrently, bounded by the
// configured concurrency, each under its own timeout. Stores that were never
// fetched are skipped. An optional gate (normally "is a user signed in")
// suspends refreshing without stopping the loop.
package refresh
