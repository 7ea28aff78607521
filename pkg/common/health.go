package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a liveness handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
		})
	}
}

// HealthCheckWithDeps returns a readiness handler. Required checks turn the service unhealthy
// when they fail; optional checks only mark it degraded.
func HealthCheckWithDeps(serviceName, version string, required, optional map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		checkResults := make(map[string]string, len(required)+len(optional))

		for name, check := range optional {
			if err := check(); err != nil {
				checkResults[name] = "degraded: " + err.Error()
				status = "degraded"
				continue
			}
			checkResults[name] = "healthy"
		}

		for name, check := range required {
			if err := check(); err != nil {
				checkResults[name] = "unhealthy: " + err.Error()
				status = "unhealthy"
				continue
			}
			checkResults[name] = "healthy"
		}

		statusCode := http.StatusOK
		if status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, HealthResponse{
			Status:    status,
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
			Checks:    checkResults,
		})
	}
}
