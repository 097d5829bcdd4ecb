// Package api provides the HTTP client for the market backend.
//
// Three base URLs are in play, each served by its own Client:
//   - Session API: POST /login, GET /me, DELETE /logout (bearer token)
//   - Market API: GET /markets/query, GET /markets/querystock
//   - Chart API: GET /health, GET /api/stock/{ticker}
//
// All requests and responses are JSON. Transport/status failures and
// application failures (a JSON "error" field) both surface as *APIError.
package api
