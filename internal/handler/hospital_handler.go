package handler

import (
	"net/http"

	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type HospitalHandler struct {
	hospitalService *service.HospitalService
}

func NewHospitalHandler(hospitalService *service.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService: hospitalService,
	}
}

type CreateHospitalRequest struct {
	Name    string   `json:"name" binding:"required,max=255"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
}

// GetAllHospitals lists hospitals
// GET /api/hospitals
func (h *HospitalHandler) GetAllHospitals(c *gin.Context) {
	hospitals, err := h.hospitalService.GetAllHospitals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// GetLocations returns hospital positions for maps
// GET /api/hospitals/locations
func (h *HospitalHandler) GetLocations(c *gin.Context) {
	locations, err := h.hospitalService.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, locations)
}

// GetHospital returns a hospital with its bins counted by type
// GET /api/hospitals/:hospitalId
func (h *HospitalHandler) GetHospital(c *gin.Context) {
	id, ok := uintParam(c, "hospitalId")
	if !ok {
		return
	}

	details, err := h.hospitalService.GetHospital(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, details)
}

// GetHospitalBins lists the bins assigned to a hospital
// GET /api/hospitals/:hospitalId/bins
func (h *HospitalHandler) GetHospitalBins(c *gin.Context) {
	id, ok := uintParam(c, "hospitalId")
	if !ok {
		return
	}

	bins, err := h.hospitalService.GetBins(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"bins":  bins,
		"count": len(bins),
	})
}

// CreateHospital creates a hospital
// POST /api/hospitals
func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var req CreateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "name, lat and lng are required")
		return
	}

	hospital, err := h.hospitalService.CreateHospital(c.Request.Context(), service.CreateHospitalInput{
		Name:    req.Name,
		Address: req.Address,
		Lat:     *req.Lat,
		Lng:     *req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Hospital created successfully", hospital)
}

// DeleteHospital deletes a hospital and unassigns its bins
// DELETE /api/hospitals/:hospitalId
func (h *HospitalHandler) DeleteHospital(c *gin.Context) {
	id, ok := uintParam(c, "hospitalId")
	if !ok {
		return
	}

	if err := h.hospitalService.DeleteHospital(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Hospital deleted successfully")
}
