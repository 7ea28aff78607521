package middleware

import (
	"time"

	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// probePaths are logged at debug level so scrapes don't drown the access log
var probePaths = map[string]bool{
	"/healthz":      true,
	"/health/ready": true,
	"/metrics":      true,
}

// RequestLogger writes one access log line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
		}

		reqLogger := logger.WithContext(c.Request.Context())

		switch {
		case len(c.Errors) > 0:
			reqLogger.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
		case status >= 500:
			reqLogger.Warn("request completed with server error", fields...)
		case probePaths[path]:
			reqLogger.Debug("request completed", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}
