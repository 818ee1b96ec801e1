package middleware

import (
	"context"
	"errors"
	"net/http"

	"smartbin-backend/internal/logger"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ContextDeviceKeyID holds the ID of the device key that authenticated the request
const ContextDeviceKeyID = "deviceKeyID"

// APIKeyValidator checks a plain-text device key
type APIKeyValidator interface {
	ValidateAPIKey(ctx context.Context, plainKey string) (*models.DeviceAPIKey, error)
}

// APIKeyAuthMiddleware validates the X-API-Key header of device requests.
// When required is false requests without the header pass; a supplied key is still checked.
func APIKeyAuthMiddleware(validator APIKeyValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" && !required {
			c.Next()
			return
		}
		if apiKey == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "API key is required in X-API-Key header")
			c.Abort()
			return
		}

		key, err := validator.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired API key")
			} else {
				logger.Log.WithError(err).Error("API key validation failed")
				utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to validate API key")
			}
			c.Abort()
			return
		}

		c.Set(ContextDeviceKeyID, key.ID)
		c.Next()
	}
}
