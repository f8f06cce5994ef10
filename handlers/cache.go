package handlers

import (
	"log"
	"net/http"

	"sprinklex-server/services"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	processor *services.DataProcessor
}

func NewCacheHandler(processor *services.DataProcessor) *CacheHandler {
	return &CacheHandler{
		processor: processor,
	}
}

func (h *CacheHandler) ProcessCache(c *gin.Context) {
	stored, err := h.processor.ProcessCachedData()
	if err != nil {
		log.Printf("manual cache flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store cached readings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "stored": stored})
}

func (h *CacheHandler) GetAllCachedData(c *gin.Context) {
	allData := h.processor.GetAllCachedData()

	result := make(map[string][]gin.H)
	totalPoints := 0

	for deviceURL, points := range allData {
		readings := make([]gin.H, 0, len(points))
		for _, point := range points {
			readings = append(readings, gin.H{
				"deep1":     point.Reading.Deep1,
				"deep2":     point.Reading.Deep2,
				"deep3":     point.Reading.Deep3,
				"valve":     point.Reading.Valve,
				"timestamp": point.Reading.Timestamp,
				"cached_at": point.CachedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
			totalPoints++
		}
		result[deviceURL] = readings
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"total_devices":     len(result),
		"total_data_points": totalPoints,
		"cached_data":       result,
	})
}

func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.processor.GetCacheStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  stats,
	})
}
