package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sprinklex-server/repositories"
	"sprinklex-server/services"
	"sprinklex-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func readType(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestDashboardWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stores := repositories.NewMemoryStores()
	mgr := ws.NewManager()
	monitor := services.NewDeviceMonitor(services.MonitorConfig{}, stores.Records, stores.Commands, nil, mgr)
	h := NewWSHandler(mgr, monitor)

	r := gin.New()
	r.GET("/ws", h.HandleDashboardWS)
	server := httptest.NewServer(r)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	first := readType(t, conn)
	if first["type"] != "device_state" {
		t.Fatalf("expected initial device_state, got %v", first)
	}
	if first["state"].(map[string]interface{})["connectionStatus"] != "unknown" {
		t.Errorf("unexpected state %v", first["state"])
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readType(t, conn); msg["type"] != "pong" {
		t.Errorf("expected pong, got %v", msg)
	}

	if n := mgr.Broadcast([]byte(`{"type":"sensor_data"}`)); n != 1 {
		t.Errorf("expected one subscriber, got %d", n)
	}
	if msg := readType(t, conn); msg["type"] != "sensor_data" {
		t.Errorf("expected broadcast, got %v", msg)
	}
}
