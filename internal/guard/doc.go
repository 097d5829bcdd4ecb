// Package guard redirects unauthenticated navigation to the login view.
//
// The decision reads the persisted session directly rather than the
// in-memory store, so a session cleared by another process is honoured on
// the next request. The root path always redirects to the login view.
package guard
