package analytics

import (
	"net/http"

	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/ecoride/ride-metrics/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for dashboard analytics
type Handler struct {
	service *Service
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetReport returns the full dashboard report
// GET /api/v1/analytics/report?window=weekly&attribution=start
func (h *Handler) GetReport(c *gin.Context) {
	var q ReportQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Report(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err, "failed to build report")
		return
	}

	common.SuccessResponse(c, result)
}

// GetTotals returns the summary totals of every window
// GET /api/v1/analytics/totals
func (h *Handler) GetTotals(c *gin.Context) {
	result, err := h.service.Totals(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "failed to compute totals")
		return
	}

	common.SuccessResponse(c, result)
}

// GetTrend returns one dense trend series
// GET /api/v1/analytics/trend?granularity=monthly
func (h *Handler) GetTrend(c *gin.Context) {
	var q TrendQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Trend(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err, "failed to compute trend")
		return
	}

	common.SuccessResponse(c, result)
}

// GetStationRevenue returns the station revenue leaderboard
// GET /api/v1/analytics/stations/revenue?window=all&sort=revenue&dir=desc
func (h *Handler) GetStationRevenue(c *gin.Context) {
	var q StationRevenueQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.StationRevenue(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err, "failed to compute station revenue")
		return
	}

	common.SuccessResponse(c, result)
}

// GetHourlyRevenue returns today's revenue per hour
// GET /api/v1/analytics/hourly
func (h *Handler) GetHourlyRevenue(c *gin.Context) {
	result, err := h.service.Hourly(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "failed to compute hourly revenue")
		return
	}

	common.SuccessResponse(c, result)
}

// GetRatingTrend returns the average ride rating per bucket
// GET /api/v1/analytics/ratings/trend?granularity=weekly
func (h *Handler) GetRatingTrend(c *gin.Context) {
	var q TrendQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RatingTrend(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err, "failed to compute rating trend")
		return
	}

	common.SuccessResponse(c, result)
}

func (h *Handler) handleError(c *gin.Context, err error, fallback string) {
	if appErr, ok := common.AsAppError(err); ok {
		if appErr.Code >= http.StatusInternalServerError {
			middleware.ReportError(c, err)
		}
		common.AppErrorResponse(c, appErr)
		return
	}

	logger.WithContext(c.Request.Context()).Error(fallback, zap.Error(err))
	middleware.ReportError(c, err)
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

// RegisterRoutes registers analytics routes
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	analytics := r.Group("/api/v1/analytics")
	{
		analytics.GET("/report", h.GetReport)
		analytics.GET("/totals", h.GetTotals)
		analytics.GET("/trend", h.GetTrend)
		analytics.GET("/stations/revenue", h.GetStationRevenue)
		analytics.GET("/hourly", h.GetHourlyRevenue)
		analytics.GET("/ratings/trend", h.GetRatingTrend)
	}
}
