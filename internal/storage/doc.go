// Package storage persists the client session across restarts.
//
// One JSON-serialized session is kept under a fixed key (default "user").
// Several drivers are available:
//   - file: a JSON document on local disk, replaced atomically on write
//   - sqlite: a key/value table in a local SQLite file (pure Go, via gorm)
//   - redis: a plain string key
//   - postgres: a key/value table reached through a pgx pool
//   - memory: process-local, for tests and dry runs
//
// Callers see the Persister interface only. A stored value that no longer
// decodes is reported as ErrCorrupt so the caller can clear it.
package storage
