package pagination

import (
	"strconv"

	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit  = 20
	MaxLimit      = 100
	DefaultOffset = 0
)

// Params holds the page window requested by a client
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParseParams reads limit and offset from the query string. Missing, malformed or
// out of range values fall back to the defaults; limit is capped at MaxLimit.
func ParseParams(c *gin.Context) Params {
	params := Params{Limit: DefaultLimit, Offset: DefaultOffset}

	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		params.Limit = v
		if params.Limit > MaxLimit {
			params.Limit = MaxLimit
		}
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		params.Offset = v
	}

	return params
}

// BuildMeta builds the response metadata for a page
func BuildMeta(limit, offset int, total int64) *common.Meta {
	return common.NewMeta(limit, offset, total)
}

// HasMore reports whether rows remain after the current page
func HasMore(offset, limit int, total int64) bool {
	return int64(offset+limit) < total
}

// GetCurrentPage returns the 1-based page number for offset
func GetCurrentPage(offset, limit int) int {
	if limit <= 0 || offset < 0 {
		return 1
	}
	return offset/limit + 1
}
