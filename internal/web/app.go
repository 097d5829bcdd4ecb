package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/guard"
	"github.com/rickgao/marketdash/internal/live"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/proxy"
	"github.com/rickgao/marketdash/internal/query"
	"github.com/rickgao/marketdash/internal/session"
)

// TopicSession carries the signed-in user. Store topics use the store names.
const TopicSession = "session"

// App is the state shared by every handler.
type App struct {
	Config  *config.DashboardConfig
	Session *session.Store
	Markets *query.MarketStore
	Series  *query.SeriesStore
	Chart   *query.ChartStore
	Hub     *live.Hub
	Guard   *guard.Guard
	Proxy   *proxy.Proxy // optional
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// SessionView is the session as shown to browsers. The token stays server side.
type SessionView struct {
	Authenticated bool         `json:"authenticated"`
	ID            model.UserID `json:"id,omitempty"`
	Email         string       `json:"email,omitempty"`
}

func viewOf(sess *model.Session) SessionView {
	if sess == nil {
		return SessionView{}
	}
	return SessionView{Authenticated: true, ID: sess.ID, Email: sess.Email}
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Watch publishes session and store changes to the hub until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	var wg sync.WaitGroup

	sessCh, cancelSess := a.Session.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancelSess()
		for {
			select {
			case <-ctx.Done():
				return
			case sess, ok := <-sessCh:
				if !ok {
					return
				}
				if err := a.Hub.Publish(TopicSession, viewOf(sess)); err != nil {
					a.logger().Error("publish failed", "topic", TopicSession, "error", err)
				}
			}
		}
	}()

	watchStore(ctx, &wg, a.Hub, a.Markets.Store)
	watchStore(ctx, &wg, a.Hub, a.Series.Store)
	watchStore(ctx, &wg, a.Hub, a.Chart.Store)

	wg.Wait()
	return nil
}

func watchStore[T any](ctx context.Context, wg *sync.WaitGroup, h *live.Hub, s *query.Store[T]) {
	ch, cancel := s.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		live.Watch(ctx, h, s.Name(), ch)
	}()
}

// stateOf returns the current state of topic for /state/{topic}.
func (a *App) stateOf(topic string) (any, bool) {
	switch topic {
	case TopicSession:
		return viewOf(a.Session.Current()), true
	case query.MarketsName:
		return a.Markets.Get(), true
	case query.SeriesName:
		return a.Series.Get(), true
	case query.ChartName:
		return a.Chart.Get(), true
	}
	return nil, false
}
