package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lotto/lottery"
	"lotto/service"
)

// errBadRequest marks malformed input
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps a service error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, lottery.ErrInsufficientStake),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, lottery.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotDeployed):
		return http.StatusNotFound
	case errors.Is(err, lottery.ErrEmptyPool),
		errors.Is(err, service.ErrAlreadyDeployed):
		return http.StatusConflict
	case errors.Is(err, lottery.ErrTransferFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	requestID := c.GetString(requestIDKey)

	entry := log.WithFields(log.Fields{
		"requestId": requestID,
		"path":      c.FullPath(),
		"status":    status,
		"error":     err,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Info("Request rejected")
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: message, RequestID: requestID})
}
