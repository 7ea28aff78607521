package middleware

import (
	"net/http"

	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 envelope. It sits outside Sentry, which
// reports the panic and re-raises it here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.WithContext(c.Request.Context()).Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("route", c.FullPath()),
				zap.String("method", c.Request.Method),
				zap.Stack("stack"),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
			c.Abort()
		}()

		c.Next()
	}
}
