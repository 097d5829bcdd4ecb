package guard

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rickgao/marketdash/internal/model"
)

// SessionLoader reads the persisted session.
type SessionLoader interface {
	Load(ctx context.Context) (*model.Session, error)
}

// Guard decides whether a path may be served.
type Guard struct {
	sessions    SessionLoader
	loginPath   string
	publicPaths []string
	logger      *slog.Logger
}

// New creates a Guard. Paths equal to an entry of publicPaths, or starting
// with an entry that ends in "/", are served without a session.
func New(sessions SessionLoader, loginPath string, publicPaths []string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sessions:    sessions,
		loginPath:   loginPath,
		publicPaths: publicPaths,
		logger:      logger,
	}
}

// LoginPath returns the redirect target.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check returns the login path and false when path requires a session and
// none is persisted. Any load failure counts as no session.
func (g *Guard) Check(ctx context.Context, path string) (string, bool) {
	if g.isPublic(path) {
		return "", true
	}

	sess, err := g.sessions.Load(ctx)
	if err != nil || sess == nil {
		return g.loginPath, false
	}
	return "", true
}

func (g *Guard) isPublic(path string) bool {
	if path == g.loginPath {
		return true
	}
	for _, p := range g.publicPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// Middleware redirects requests rejected by Check with 307 Temporary Redirect.
// The root path always goes to the login path with 303 See Other.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}

		if target, ok := g.Check(r.Context(), r.URL.Path); !ok {
			g.logger.Debug("redirecting unauthenticated request", "path", r.URL.Path, "to", target)
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
