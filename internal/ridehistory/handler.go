package ridehistory

import (
	"net/http"

	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/ecoride/ride-metrics/pkg/middleware"
	"github.com/ecoride/ride-metrics/pkg/pagination"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for ride history
type Handler struct {
	service *Service
}

// NewHandler creates a new ride history handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetRideHistory returns the filtered ride history
// GET /api/v1/rides/history?window=week&station=A&sort=amount&dir=desc&limit=20&offset=0
func (h *Handler) GetRideHistory(c *gin.Context) {
	var q HistoryQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	params := pagination.ParseParams(c)

	page, err := h.service.GetRideHistory(c.Request.Context(), q, params.Limit, params.Offset)
	if err != nil {
		h.handleError(c, err, "failed to get ride history")
		return
	}

	meta := pagination.BuildMeta(params.Limit, params.Offset, int64(page.Total))
	common.SuccessResponseWithMeta(c, page, meta)
}

// GetRideDetails returns full details of a specific ride
// GET /api/v1/rides/history/:id
func (h *Handler) GetRideDetails(c *gin.Context) {
	ride, err := h.service.GetRideDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "failed to get ride details")
		return
	}

	common.SuccessResponse(c, ride)
}

// GetStats returns totals and insights for the filtered rides
// GET /api/v1/rides/stats?window=month
func (h *Handler) GetStats(c *gin.Context) {
	var q StatsQuery
	if err := middleware.ValidateQuery(c, &q); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err, "failed to get stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// GetStations returns the options for the station filter
// GET /api/v1/rides/stations
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.service.GetStations(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "failed to get stations")
		return
	}

	common.SuccessResponse(c, gin.H{"stations": stations})
}

// GetFrequentRoutes returns commonly ridden routes
// GET /api/v1/rides/frequent-routes
func (h *Handler) GetFrequentRoutes(c *gin.Context) {
	routes, err := h.service.GetFrequentRoutes(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "failed to get frequent routes")
		return
	}

	common.SuccessResponse(c, gin.H{"routes": routes})
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

// RegisterRoutes registers ride history routes
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	rides := r.Group("/api/v1/rides")
	{
		rides.GET("/history", h.GetRideHistory)
		rides.GET("/history/:id", h.GetRideDetails)
		rides.GET("/stats", h.GetStats)
		rides.GET("/stations", h.GetStations)
		rides.GET("/frequent-routes", h.GetFrequentRoutes)
	}
}
