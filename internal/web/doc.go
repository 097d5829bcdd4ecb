// Package web serves the dashboard: login, market listing, stock series and
// charts, JSON state for each store and a websocket feed of state changes.
//
// All handlers share one App, which owns the session store, the query stores
// and the live hub. Requests pass through request logging, the development
// proxy and the route guard, in that order, before reaching the router.
package web
