// Package live pushes session and store state to connected browsers over
// WebSocket.
//
// The Hub keeps the latest message of every topic and replays them to each
// new connection, then forwards every publish. Each connection has its own
// growable outbox; the writer drains it in batches and sends only the newest
// message of each topic, so a slow browser never blocks publishers and never
// receives stale state after fresh state.
package live
