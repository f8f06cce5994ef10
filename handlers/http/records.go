package httpHandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sprinklex-server/entities"
	"sprinklex-server/middlewares"
	"sprinklex-server/repositories"
	"sprinklex-server/usecases"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	records *usecases.RecordsUseCase
}

func NewRecordHandler(records *usecases.RecordsUseCase) *RecordHandler {
	return &RecordHandler{records: records}
}

func recordJSON(rec entities.Record) gin.H {
	return gin.H{
		"key":       rec.Key,
		"value":     json.RawMessage(rec.Value),
		"updatedAt": rec.UpdatedAt,
	}
}

func writeRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrUnknownKey), errors.Is(err, usecases.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access records"})
	}
}

// ListRecords handles GET /api/records
func (h *RecordHandler) ListRecords(c *gin.Context) {
	recs, err := h.records.List(middlewares.UserID(c))
	if err != nil {
		writeRecordError(c, err)
		return
	}
	data := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		data = append(data, recordJSON(rec))
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
}

// GetRecord handles GET /api/records/:key
func (h *RecordHandler) GetRecord(c *gin.Context) {
	rec, err := h.records.Get(middlewares.UserID(c), c.Param("key"))
	if err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordJSON(*rec))
}

// PutRecord handles PUT /api/records/:key. The body is the raw JSON value.
func (h *RecordHandler) PutRecord(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	rec, err := h.records.Put(middlewares.UserID(c), c.Param("key"), body)
	if err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordJSON(*rec))
}

// DeleteRecord handles DELETE /api/records/:key
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	if err := h.records.Delete(middlewares.UserID(c), c.Param("key")); err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}
