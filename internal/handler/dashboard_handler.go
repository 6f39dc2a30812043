package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/middleware"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
	"github.com/campusdash/canvas-dashboard-api/pkg/response"
)

type dashboardService interface {
	GetDashboardData(ctx context.Context, userID int64) (*dto.DashboardData, bool, error)
}

type predictionService interface {
	Calculate(data *dto.DashboardData) dto.PredictionData
}

// DashboardHandler wires the dashboard and prediction services to HTTP
// endpoints.
type DashboardHandler struct {
	dashboards  dashboardService
	predictions predictionService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboards dashboardService, predictions predictionService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, predictions: predictions}
}

// Dashboard godoc
// @Summary Aggregated student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	if h.dashboards == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start := time.Now()
	data, cacheHit, err := h.dashboards.GetDashboardData(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, meta)
}

// Prediction godoc
// @Summary Final grade forecast
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/prediction [get]
func (h *DashboardHandler) Prediction(c *gin.Context) {
	if h.dashboards == nil || h.predictions == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, cacheHit, err := h.dashboards.GetDashboardData(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)

	prediction := h.predictions.Calculate(data)
	response.JSON(c, http.StatusOK, prediction, middleware.ExtractMeta(c))
}
