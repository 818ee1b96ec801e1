package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TelemetryHandler struct {
	telemetryService *service.TelemetryService
}

func NewTelemetryHandler(telemetryService *service.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{
		telemetryService: telemetryService,
	}
}

// bindOneOrMany decodes a JSON body holding either one object or an array of objects
func bindOneOrMany[T any](c *gin.Context) ([]T, bool) {
	body, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := binding.JSON.BindBody(trimmed, &items); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return nil, false
		}
		return items, true
	}

	var item T
	if err := binding.JSON.BindBody(trimmed, &item); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return []T{item}, true
}

// Insert ingests one fill-level reading or a batch of them
// POST /insert
func (h *TelemetryHandler) Insert(c *gin.Context) {
	batch, ok := bindOneOrMany[service.ReadingInput](c)
	if !ok {
		return
	}

	if _, err := h.telemetryService.Ingest(c.Request.Context(), batch); err != nil {
		respondError(c, err)
		return
	}

	c.String(http.StatusOK, "Batch insert and status update complete")
}

// InsertOrganic ingests one waste volume reading or a batch of them
// POST /insert/organic
func (h *TelemetryHandler) InsertOrganic(c *gin.Context) {
	batch, ok := bindOneOrMany[service.OrganicReadingInput](c)
	if !ok {
		return
	}

	if _, err := h.telemetryService.IngestOrganic(c.Request.Context(), batch); err != nil {
		respondError(c, err)
		return
	}

	c.String(http.StatusOK, "Organic waste data inserted")
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

// Latest returns the newest reading of a bin
// GET /api/bins/:reference/latest
func (h *TelemetryHandler) Latest(c *gin.Context) {
	reading, err := h.telemetryService.Latest(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, reading)
}

// History returns recent readings of a bin, oldest first
// GET /api/bins/:reference/history?limit=N
func (h *TelemetryHandler) History(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	readings, err := h.telemetryService.History(c.Request.Context(), c.Param("reference"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, readings)
}

// WasteData returns recent waste volume readings of a bin, newest first
// GET /api/bins/:reference/waste-data?limit=N
func (h *TelemetryHandler) WasteData(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	readings, err := h.telemetryService.WasteData(c.Request.Context(), c.Param("reference"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, readings)
}
