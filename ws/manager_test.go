package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, m *Manager) (*websocket.Conn, string) {
	t.Helper()
	ids := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ids <- m.Register(conn)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	select {
	case id := <-ids:
		return conn, id
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never registered")
	}
	return nil, ""
}

func TestBroadcast(t *testing.T) {
	m := NewManager()
	c1, id1 := dial(t, m)
	c2, _ := dial(t, m)

	if !m.IsConnected(id1) || len(m.List()) != 2 {
		t.Fatalf("expected two subscribers, got %v", m.List())
	}

	if n := m.Broadcast([]byte(`{"type":"pong"}`)); n != 2 {
		t.Errorf("expected 2 deliveries, got %d", n)
	}
	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if string(msg) != `{"type":"pong"}` {
			t.Errorf("unexpected message %s", msg)
		}
	}

	if err := m.Send(id1, []byte("hi")); err != nil {
		t.Errorf("send: %v", err)
	}
	m.Unregister(id1)
	if m.IsConnected(id1) {
		t.Errorf("expected subscriber to be removed")
	}
	if err := m.Send(id1, []byte("hi")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
