package handlers

import (
	"net/http"

	"iris/internal/middleware"
	"iris/internal/service"
)

// DashboardHandler serves portal statistics and the personal dashboard
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats returns portal-wide counters. No authentication required.
// @Summary Portal statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.Stats
// @Router /stats [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, stats)
}

// UserDashboard returns the caller's personal dashboard
// @Summary User dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserDashboard
// @Router /dashboard [get]
func (h *DashboardHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	d, err := h.dashboard.UserDashboard(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, d)
}
