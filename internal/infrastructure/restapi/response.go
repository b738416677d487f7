package restapi

import (
	"errors"
	"net/http"

	"xrpl_control_room/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, APIResponse{Data: data})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress),
		errors.Is(err, entity.ErrInvalidProvider),
		errors.Is(err, entity.ErrInvalidAlert),
		errors.Is(err, entity.ErrInvalidPreferences):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrWalletNotFound),
		errors.Is(err, entity.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrDuplicateWallet):
		return http.StatusConflict
	case errors.Is(err, entity.ErrAllEndpointsFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), APIResponse{Error: err.Error()})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, APIResponse{Error: msg})
}
