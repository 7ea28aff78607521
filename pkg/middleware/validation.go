package middleware

import (
	"fmt"

	"github.com/ecoride/ride-metrics/pkg/validation"
	"github.com/gin-gonic/gin"
)

// ValidateQuery binds the query string into req and runs its validate tags. Values that
// cannot be parsed into the field type are reported before tag validation runs.
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return fmt.Errorf("invalid query parameters: %w", err)
	}
	return validation.ValidateStruct(req)
}
