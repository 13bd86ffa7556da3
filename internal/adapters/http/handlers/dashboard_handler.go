package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

// DashboardHandler handles the dashboard landing page
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Overview returns the menu and counts for the viewer's role
// @Summary Dashboard
// @Description Menu of the dashboard routes the role may open, plus counts of its records
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	view, err := h.dashboardService.Overview(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}
