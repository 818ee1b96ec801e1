package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BinHandler struct {
	binService *service.BinService
}

func NewBinHandler(binService *service.BinService) *BinHandler {
	return &BinHandler{
		binService: binService,
	}
}

type CreateBinRequest struct {
	Reference     string          `json:"reference" binding:"required,max=100"`
	Statut        string          `json:"statut"`
	Functionality string          `json:"functionality"`
	Type          json.RawMessage `json:"type"`
	Location      string          `json:"location" binding:"max=100"`
	HospitalID    *uint           `json:"hospital_id"`
}

type BinReferenceRequest struct {
	BinReference string `json:"binReference" binding:"required"`
}

// CreateBin provisions a bin with its initial measurement row
// POST /api/smart-trash-bins
func (h *BinHandler) CreateBin(c *gin.Context) {
	var req CreateBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: reference is required")
		return
	}

	binType, err := models.ParseBinType(string(req.Type))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid type: must be 1 or 2")
		return
	}

	bin, err := h.binService.Create(c.Request.Context(), service.CreateBinInput{
		Reference:     req.Reference,
		Statut:        req.Statut,
		Functionality: req.Functionality,
		Type:          binType,
		Location:      req.Location,
		HospitalID:    req.HospitalID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Trash bin and bin values added successfully"
	if bin.Type == models.BinTypeOrganic {
		message = "Trash bin and OR bin values added successfully"
	}
	utils.CreatedResponse(c, message, bin)
}

// AddBinToHospital assigns a bin to a hospital
// POST /api/hospitals/:hospitalId/add-bin
func (h *BinHandler) AddBinToHospital(c *gin.Context) {
	hospitalID, ok := uintParam(c, "hospitalId")
	if !ok {
		return
	}

	var req BinReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "binReference is required")
		return
	}

	if err := h.binService.AssignToHospital(c.Request.Context(), hospitalID, req.BinReference); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Bin added to hospital successfully")
}

// RemoveBinFromHospital detaches a bin from a hospital
// DELETE /api/hospitals/:hospitalId/delete-bin
func (h *BinHandler) RemoveBinFromHospital(c *gin.Context) {
	hospitalID, ok := uintParam(c, "hospitalId")
	if !ok {
		return
	}

	var req BinReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "binReference is required")
		return
	}

	if err := h.binService.RemoveFromHospital(c.Request.Context(), hospitalID, req.BinReference); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Bin removed from hospital successfully")
}

// GetAllBins lists bins with their latest reading
// GET /api/smart-trash-bins
func (h *BinHandler) GetAllBins(c *gin.Context) {
	bins, err := h.binService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"bins":  bins,
		"count": len(bins),
	})
}

// ExportBins downloads the bin list as a spreadsheet
// GET /api/smart-trash-bins/export
func (h *BinHandler) ExportBins(c *gin.Context) {
	buf, err := h.binService.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("smart-trash-bins-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GetStats returns bin counts
// GET /api/bins/stats
func (h *BinHandler) GetStats(c *gin.Context) {
	stats, err := h.binService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GetLocations returns bin positions
// GET /api/bins/locations
func (h *BinHandler) GetLocations(c *gin.Context) {
	locations, err := h.binService.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, locations)
}

// DeleteBin removes one bin and its readings
// DELETE /api/trashbin/:id
func (h *BinHandler) DeleteBin(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.binService.Delete(c.Request.Context(), []uint{id}); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Trash bin deleted successfully")
}

// DeleteBins removes several bins and their readings
// DELETE /api/trashbins
func (h *BinHandler) DeleteBins(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "ids must be a non-empty list of bin IDs")
		return
	}

	deleted, err := h.binService.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageFieldsResponse(c, fmt.Sprintf("%d trash bins deleted successfully", deleted), gin.H{
		"deleted": deleted,
	})
}
