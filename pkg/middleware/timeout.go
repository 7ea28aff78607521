package middleware

import (
	"net/http"
	"time"

	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// Timeout aborts handlers that run longer than d with a 504 envelope
func Timeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timed out")
		}),
	)
}
