package httpHandler

import (
	"errors"
	"net/http"
	"strconv"

	"sprinklex-server/repositories"
	"sprinklex-server/services"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	monitor  *services.DeviceMonitor
	commands repositories.CommandLogRepository
}

func NewDeviceHandler(monitor *services.DeviceMonitor, commands repositories.CommandLogRepository) *DeviceHandler {
	return &DeviceHandler{monitor: monitor, commands: commands}
}

type waterSourceRequest struct {
	SourceID string `json:"sourceId"`
}

type tokenRequest struct {
	Token *string `json:"token"`
}

func monitorErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotConnected), errors.Is(err, services.ErrChangeInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoWaterSource), errors.Is(err, services.ErrUnknownWaterSource):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// GetDevice handles GET /api/device
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.monitor.Snapshot()})
}

// Discover handles POST /api/device/discover
func (h *DeviceHandler) Discover(c *gin.Context) {
	if err := h.monitor.Discover(c.Request.Context()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": h.monitor.Snapshot().LastError,
			"data":  h.monitor.Snapshot(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Device connected",
		"data":    h.monitor.Snapshot(),
	})
}

// Refresh handles POST /api/device/refresh
func (h *DeviceHandler) Refresh(c *gin.Context) {
	if err := h.monitor.Refresh(c.Request.Context()); err != nil {
		msg := err.Error()
		if snap := h.monitor.Snapshot(); snap.LastError != "" {
			msg = snap.LastError
		}
		c.JSON(monitorErrorStatus(err), gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.monitor.Snapshot()})
}

// ChangeWaterSource handles POST /api/device/water-source
func (h *DeviceHandler) ChangeWaterSource(c *gin.Context) {
	var req waterSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.monitor.ChangeWaterSource(c.Request.Context(), req.SourceID)
	if err != nil {
		msg := err.Error()
		if status := monitorErrorStatus(err); status == http.StatusBadGateway {
			msg = h.monitor.Snapshot().LastError
		}
		c.JSON(monitorErrorStatus(err), gin.H{
			"success": false,
			"error":   msg,
			"result":  result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
		"data":    h.monitor.Snapshot(),
	})
}

// Calibrate handles POST /api/device/calibrate
func (h *DeviceHandler) Calibrate(c *gin.Context) {
	result, err := h.monitor.Calibrate(c.Request.Context())
	if err != nil {
		c.JSON(monitorErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SetToken handles PUT /api/device/token
func (h *DeviceHandler) SetToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	h.monitor.SetToken(*req.Token)
	c.JSON(http.StatusOK, gin.H{"message": "Device token updated"})
}

// GetWaterSources handles GET /api/device/water-sources
func (h *DeviceHandler) GetWaterSources(c *gin.Context) {
	sources := h.monitor.WaterSources()
	c.JSON(http.StatusOK, gin.H{
		"data":  sources,
		"count": len(sources),
	})
}

// GetCommands handles GET /api/device/commands?limit=
func (h *DeviceHandler) GetCommands(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	logs, err := h.commands.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve commands"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  logs,
		"count": len(logs),
	})
}
