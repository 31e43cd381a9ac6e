package api

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	callerHeader    = "X-Caller-Address"
	requestIDKey    = "requestId"
	callerKey       = "caller"
)

// requestID reuses an incoming X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"requestId": c.GetString(requestIDKey),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
		}).Debug("Handled request")
	}
}

// requireCaller rejects requests without a valid X-Caller-Address
func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(callerHeader)
		if !common.IsHexAddress(raw) {
			writeError(c, fmt.Errorf("%w: %s header must be a hex address", errBadRequest, callerHeader))
			return
		}
		c.Set(callerKey, common.HexToAddress(raw))
		c.Next()
	}
}

func callerFrom(c *gin.Context) common.Address {
	return c.MustGet(callerKey).(common.Address)
}

func addressParam(c *gin.Context, name string) (common.Address, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", errBadRequest, raw)
	}
	return common.HexToAddress(raw), nil
}
