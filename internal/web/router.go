package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
)

//go:embed static
var staticFS embed.FS

// NewRouter registers every dashboard route.
func NewRouter(a *App) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", a.handleHealth).Methods("GET")
	r.HandleFunc("/", a.handleRoot).Methods("GET")
	r.HandleFunc(a.Guard.LoginPath(), a.handleLoginForm).Methods("GET")
	r.HandleFunc(a.Guard.LoginPath(), a.handleLogin).Methods("POST")
	r.HandleFunc("/logout", a.handleLogout).Methods("POST")

	r.HandleFunc("/markets", a.handleMarkets).Methods("GET")
	r.HandleFunc("/stocks/{code}", a.handleSeries).Methods("GET")
	r.HandleFunc("/stocks/{code}/chart", a.handleChart).Methods("GET")
	r.HandleFunc("/stocks/{code}/chart.png", a.handleChartPNG).Methods("GET")

	r.HandleFunc("/state/{topic}", a.handleState).Methods("GET")
	r.Handle("/ws", a.Hub).Methods("GET")

	static, _ := fs.Sub(staticFS, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return r
}

// NewHandler wraps the router with request logging, the proxy and the guard.
func NewHandler(a *App) http.Handler {
	var h http.Handler = NewRouter(a)
	h = a.Guard.Middleware(h)
	if a.Proxy != nil {
		h = a.Proxy.Middleware(h)
	}
	return logRequests(a.logger(), h)
}
