package httpHandler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"sprinklex-server/device"
	"sprinklex-server/entities"
	"sprinklex-server/repositories"
	"sprinklex-server/services"

	"github.com/gin-gonic/gin"
)

const proxyHelpText = "Note: This proxy server must be running on the same machine connected to the ESP8266's WiFi network (ESP8266-Network)."

// ProxyHandler relays browser requests to the controller, which the
// dashboard cannot reach directly from an https origin.
type ProxyHandler struct {
	espURL   string
	timeout  time.Duration
	monitor  *services.DeviceMonitor
	commands repositories.CommandLogRepository
}

func NewProxyHandler(espURL string, timeout time.Duration, monitor *services.DeviceMonitor, commands repositories.CommandLogRepository) *ProxyHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProxyHandler{espURL: espURL, timeout: timeout, monitor: monitor, commands: commands}
}

// Health handles GET /api/health
func (h *ProxyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Backend proxy server is running"})
}

// Toggle handles GET /api/esp8266/toggle
func (h *ProxyHandler) Toggle(c *gin.Context) {
	log.Printf("Attempting to connect to ESP8266 at %s...", h.espURL)

	client := device.NewClient(h.espURL, "", device.WithTimeout(h.timeout))
	text, err := client.Toggle(c.Request.Context())
	h.logToggle(text, err)

	if err != nil {
		log.Printf("ESP8266 connection error: %v", err)
		errMsg := err.Error()
		var se *device.StatusError
		if errors.As(err, &se) {
			errMsg = "ESP8266 responded with status: " + strconv.Itoa(se.Code)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":  false,
			"message":  h.toggleFailure(err, errMsg),
			"error":    errMsg,
			"helpText": proxyHelpText,
		})
		return
	}

	log.Printf("ESP8266 Response: %s", text)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Servo toggled successfully!",
		"espResponse": text,
	})
}

func (h *ProxyHandler) toggleFailure(err error, errMsg string) string {
	msg := "Could not reach ESP8266."
	switch {
	case errors.Is(err, device.ErrTimeout):
		msg += " Connection timed out after " + strconv.FormatFloat(h.timeout.Seconds(), 'f', -1, 64) + " seconds."
	case device.IsUnreachable(err):
		msg += " Network unreachable. Make sure you are connected to ESP8266-Network WiFi and the ESP8266 is powered on."
	default:
		msg += " Error: " + errMsg
	}
	return msg
}

func (h *ProxyHandler) logToggle(text string, err error) {
	if h.commands == nil {
		return
	}
	entry := &entities.CommandLog{DeviceURL: h.espURL, Command: "toggle", Success: err == nil, Response: text}
	if err != nil {
		entry.Response = err.Error()
	}
	if err := h.commands.Create(entry); err != nil {
		log.Printf("store toggle command: %v", err)
	}
}

// SensorData handles GET /api/esp8266/data?deviceUrl=<url>
func (h *ProxyHandler) SensorData(c *gin.Context) {
	target := c.Query("deviceUrl")
	switch {
	case target == "":
		target = h.espURL
		if h.monitor != nil {
			if u := h.monitor.Snapshot().DeviceURL; u != "" {
				target = u
			}
		}
	case target != h.espURL && (h.monitor == nil || !h.monitor.KnownURL(target)):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown device URL"})
		return
	}

	var client *device.Client
	if h.monitor != nil {
		client = h.monitor.ClientFor(target)
	} else {
		client = device.NewClient(target, "", device.WithTimeout(h.timeout))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	reading, err := client.SensorData(ctx)
	if err != nil {
		log.Printf("sensor data from %s: %v", target, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to fetch sensor data: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"deep1": reading.Deep1,
			"deep2": reading.Deep2,
			"deep3": reading.Deep3,
			"valve": reading.Valve,
		},
	})
}
