package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// conn is one browser connection.
type conn struct {
	ws     *websocket.Conn
	cfg    HubConfig
	logger *slog.Logger
	out    *Queue[Message]

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, cfg HubConfig, logger *slog.Logger) *conn {
	return &conn{
		ws:     ws,
		cfg:    cfg,
		logger: logger,
		out:    NewQueue[Message](16),
		done:   make(chan struct{}),
	}
}

// run blocks until the connection ends.
func (c *conn) run() {
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer wg.Done()
		c.heartbeatLoop()
	}()

	c.readLoop()
	c.close()
	wg.Wait()
}

// readLoop discards inbound frames; it exists to process control frames
// and notice when the browser goes away.
func (c *conn) readLoop() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("live read error", "error", err)
			}
			return
		}
	}
}

func (c *conn) writeLoop() {
	for {
		first, ok := c.out.Pop()
		if !ok {
			return
		}
		batch := Coalesce(append([]Message{first}, c.out.Drain(0)...), func(m Message) string {
			return m.Topic
		})

		for _, msg := range batch {
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug("live write failed", "topic", msg.Topic, "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *conn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}

// close is safe to call from any goroutine, more than once.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.out.Close()
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.ws.Close()
	})
}
