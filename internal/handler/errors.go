package handler

import (
	"errors"
	"net/http"
	"strconv"

	"smartbin-backend/internal/logger"
	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccountDisabled), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope for err. Only service messages reach the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	message := "Internal server error"

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	} else {
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	}

	utils.ErrorResponse(c, status, message)
}

// uintParam parses a numeric path parameter, writing a 400 when it is invalid
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns the authenticated user ID set by the auth middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	return id, true
}

type idsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1,dive,gt=0"`
}
