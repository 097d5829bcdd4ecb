package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/marketdash/internal/metrics"
)

// Message is one state update sent to browsers.
type Message struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
	At    time.Time       `json:"at"`
}

// HubConfig holds connection timing.
type HubConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
}

// DefaultHubConfig returns the timings used by the dashboard.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
	}
}

// Hub fans state out to every connected browser.
type Hub struct {
	cfg      HubConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*conn]struct{}
	latest  map[string]Message
	order   []string // topics in first-publish order
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(cfg HubConfig, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Default
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*conn]struct{}),
		latest:  make(map[string]Message),
	}
}

// Publish encodes v and queues it for every connection.
func (h *Hub) Publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	msg := Message{Topic: topic, Data: data, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	if _, ok := h.latest[topic]; !ok {
		h.order = append(h.order, topic)
	}
	h.latest[topic] = msg
	for c := range h.clients {
		c.out.Push(msg)
	}
	return nil
}

// Latest returns the last message published on topic.
func (h *Hub) Latest(topic string) (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, ok := h.latest[topic]
	return msg, ok
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams messages until the browser leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(ws, h.cfg, h.logger)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return
	}
	// Replay under the lock so no publish slips between replay and registration.
	for _, topic := range h.order {
		c.out.Push(h.latest[topic])
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.IncrementConnections()
	h.logger.Debug("live client connected", "remote", r.RemoteAddr)

	c.run()

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	h.metrics.DecrementConnections()
	h.logger.Debug("live client disconnected", "remote", r.RemoteAddr)
}

// Close disconnects every browser.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Watch publishes every value received from ch on topic until ctx is done
// or ch is closed.
func Watch[T any](ctx context.Context, h *Hub, topic string, ch <-chan T) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			if err := h.Publish(topic, v); err != nil {
				h.logger.Error("publish failed", "topic", topic, "error", err)
			}
		}
	}
}
