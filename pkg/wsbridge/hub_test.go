package wsbridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	hub := New(Config{
		WriteTimeout:   time.Second,
		SendBufferSize: 4,
		Logger:         logger,
	})

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestHub_BroadcastReachesConnectedClient(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	waitForClientCount(t, hub, 1)

	hub.Broadcast("opportunities", map[string]int{"count": 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	if !strings.Contains(string(data), `"kind":"opportunities"`) {
		t.Fatalf("expected kind=opportunities in payload, got %s", data)
	}

	if !strings.Contains(string(data), `"count":3`) {
		t.Fatalf("expected count=3 in payload, got %s", data)
	}
}

func TestHub_ClientCountDropsOnDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	waitForClientCount(t, hub, 1)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		hub.Broadcast("heartbeat", nil)
		time.Sleep(10 * time.Millisecond)
	}

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected client count 0 after disconnect, got %d", got)
	}
}

func TestHub_SlowClientDroppedNotBlocked(t *testing.T) {
	hub, _ := newTestHub(t)

	hub.cfg.SendBufferSize = 1
	c := &client{send: make(chan envelope, 1)}

	hub.mu.Lock()
	hub.clients[c] = struct{}{}
	hub.mu.Unlock()

	c.send <- envelope{Kind: "fill-buffer"}

	done := make(chan struct{})
	go func() {
		hub.Broadcast("opportunities", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full client buffer")
	}
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for client count %d, got %d", want, hub.ClientCount())
}
