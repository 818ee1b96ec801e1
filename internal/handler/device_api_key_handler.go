package handler

import (
	"net/http"
	"time"

	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceAPIKeyHandler struct {
	apiKeyService *service.DeviceAPIKeyService
}

func NewDeviceAPIKeyHandler(apiKeyService *service.DeviceAPIKeyService) *DeviceAPIKeyHandler {
	return &DeviceAPIKeyHandler{
		apiKeyService: apiKeyService,
	}
}

type GenerateAPIKeyRequest struct {
	Description string `json:"description" binding:"max=255"`
	ExpiresIn   string `json:"expires_in"` // Go duration, empty for no expiry
}

// GenerateAPIKey creates a device key; the plain key is only returned here
// POST /api/device-keys
func (h *DeviceAPIKeyHandler) GenerateAPIKey(c *gin.Context) {
	var req GenerateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ttl time.Duration
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "expires_in must be a duration such as 720h")
			return
		}
		ttl = d
	}

	key, err := h.apiKeyService.GenerateAPIKey(c.Request.Context(), req.Description, ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, "API key generated. Store it now, it will not be shown again.", key)
}

// GetAPIKeys lists device keys without secrets
// GET /api/device-keys
func (h *DeviceAPIKeyHandler) GetAPIKeys(c *gin.Context) {
	keys, err := h.apiKeyService.ListAPIKeys(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, keys)
}

// RevokeAPIKey deactivates a device key
// DELETE /api/device-keys/:id
func (h *DeviceAPIKeyHandler) RevokeAPIKey(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.apiKeyService.RevokeAPIKey(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, "API key revoked successfully")
}
