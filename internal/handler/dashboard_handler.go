package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardLogic *logic.DashboardLogic
}

func NewDashboardHandler(dashboard *logic.DashboardLogic) *DashboardHandler {
	return &DashboardHandler{dashboardLogic: dashboard}
}

// CreatorAnalytics 创建者面板
func (h *DashboardHandler) CreatorAnalytics(c *gin.Context) {
	stats, err := h.dashboardLogic.CreatorAnalytics(c.Request.Context(), auth.UserID(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", stats)
}

// BackerActivity 支持者最近动态
func (h *DashboardHandler) BackerActivity(c *gin.Context) {
	activities, err := h.dashboardLogic.BackerActivity(c.Request.Context(), auth.UserID(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", activities)
}
