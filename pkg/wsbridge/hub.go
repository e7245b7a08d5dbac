// Package wsbridge implements a small outbound WebSocket broadcast hub for
// the demo dashboard: connected browser clients receive the Supervisor's
// opportunity and position snapshots as they change, without polling the
// REST status endpoints. It is adapted from the teacher's inbound
// websocket.Manager (dial/reconnect/read-loop against a venue feed) turned
// inside-out: here the process is the server, and there is no reconnect
// logic because the hub doesn't dial anything — clients dial it.
package wsbridge

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Broadcaster is the narrow interface the rest of the application pushes
// dashboard updates through, keeping this package's concrete Hub isolated
// behind a seam the Supervisor can swap out or stub in tests.
type Broadcaster interface {
	Broadcast(kind string, payload any)
	ClientCount() int
}

// Config holds Hub configuration.
type Config struct {
	// WriteTimeout bounds how long a single client write may block.
	WriteTimeout time.Duration
	// SendBufferSize is the per-client outbound buffer; a client that
	// falls this far behind is disconnected rather than stalling the hub.
	SendBufferSize int
	Logger         *zap.Logger
}

// Hub tracks connected dashboard clients and fans out broadcast messages to
// all of them concurrently.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

// envelope is the wire message pushed to every connected client.
type envelope struct {
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

var _ Broadcaster = (*Hub)(nil)

// New creates a new Hub.
func New(cfg Config) *Hub {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 16
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	return &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Demo dashboard: any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  cfg.Logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// as a broadcast recipient until it disconnects or its send buffer overflows.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("wsbridge-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan envelope, h.cfg.SendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	ConnectedClients.Set(float64(h.ClientCount()))
	h.logger.Info("wsbridge-client-connected", zap.Int("clients", h.ClientCount()))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// readLoop discards inbound traffic but is required to surface the close
// frame and detect client disconnects — this hub is outbound-only.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for msg := range c.send {
		data, err := json.Marshal(msg)
		if err != nil {
			h.logger.Error("wsbridge-marshal-failed", zap.Error(err))
			continue
		}

		c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("wsbridge-write-failed", zap.Error(err))
			h.drop(c)

			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		ConnectedClients.Set(float64(h.ClientCount()))
	}
}

// Broadcast pushes payload, tagged with kind, to every connected client.
// A client whose send buffer is full is disconnected rather than allowed to
// stall the broadcast for everyone else.
func (h *Hub) Broadcast(kind string, payload any) {
	msg := envelope{Kind: kind, Payload: payload, Timestamp: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("wsbridge-client-buffer-full-dropping", zap.String("kind", kind))
			ClientsDroppedTotal.Inc()
			go h.drop(c)
		}
	}

	BroadcastsTotal.WithLabelValues(kind).Inc()
}

// ClientCount returns the number of currently connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
