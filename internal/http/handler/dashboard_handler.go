package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard metrics
// @Description Directory totals for the admin dashboard.
// @Description
// @Description **Counts:** all firms, active firms, firms with a current premium placement, offices, lawyers, pending nominations and published posts
// @Description
// @Description **Recent Lists:** the 5 newest nominations and imports
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardMetricsDTO
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.GetMetrics(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get dashboard metrics")
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}
