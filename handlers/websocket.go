package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"sprinklex-server/services"
	"sprinklex-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type incomingMessage struct {
	Type string `json:"type"` // ping
}

// WSHandler streams device state and sensor readings to dashboards.
type WSHandler struct {
	mgr     *ws.Manager
	monitor *services.DeviceMonitor
}

func NewWSHandler(mgr *ws.Manager, monitor *services.DeviceMonitor) *WSHandler {
	return &WSHandler{mgr: mgr, monitor: monitor}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func envelope(typ string, fields gin.H) []byte {
	msg := gin.H{"type": typ, "timestamp": time.Now().UTC().Format(time.RFC3339Nano)}
	for k, v := range fields {
		msg[k] = v
	}
	b, _ := json.Marshal(msg)
	return b
}

// HandleDashboardWS upgrades GET /ws and sends the current device state
// before streaming updates.
func (h *WSHandler) HandleDashboardWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	id := h.mgr.Register(conn)
	log.Printf("dashboard connected: %s", id)

	defer func() {
		h.mgr.Unregister(id)
		log.Printf("dashboard disconnected: %s", id)
	}()

	if err := h.mgr.Send(id, envelope("device_state", gin.H{"state": h.monitor.Snapshot()})); err != nil {
		log.Printf("initial state to %s: %v", id, err)
		return
	}

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("read error from %s: %v", id, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			continue
		}
		if base.Type == "ping" {
			if err := h.mgr.Send(id, envelope("pong", nil)); err != nil {
				return
			}
		}
	}
}

// GetSubscribers GET /api/ws/subscribers
func (h *WSHandler) GetSubscribers(c *gin.Context) {
	ids := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"subscribers": ids, "count": len(ids)})
}
