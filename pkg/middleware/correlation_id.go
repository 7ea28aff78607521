package middleware

import (
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the request id in and out
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key, log field and Sentry tag for the request id
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID accepts a well-formed X-Request-ID from the caller or mints a UUID. The id
// lands on the gin context, on the request context for logger.WithContext, and in the
// response header.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if !validCorrelationID(correlationID) {
			correlationID = uuid.NewString()
		}

		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// validCorrelationID rejects empty, oversized and non-printable ids so they never reach logs
func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetCorrelationID returns the request id set by CorrelationID
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
