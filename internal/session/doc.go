// Package session holds the authenticated user of the dashboard.
//
// The Store keeps at most one model.Session in memory and mirrors it to a
// storage.Persister so it survives restarts. Login, Logout and CheckAuth are
// the only operations that change it:
//   - Login replaces the session only after the backend accepts the credentials.
//   - Logout always clears the local copy, even when the backend call fails.
//   - CheckAuth revalidates the persisted token and clears it when rejected.
//
// Subscribers are notified of every change through state.Observable.
package session
