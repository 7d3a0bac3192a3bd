package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

// MilestoneHandler 里程碑和托管资金
type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
}

func NewMilestoneHandler(milestones *logic.MilestoneLogic) *MilestoneHandler {
	return &MilestoneHandler{milestoneLogic: milestones}
}

// GetProjectMilestones 项目里程碑，按顺序返回
func (h *MilestoneHandler) GetProjectMilestones(c *gin.Context) {
	milestones, err := h.milestoneLogic.GetProjectMilestones(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", milestones)
}

func (h *MilestoneHandler) StartMilestone(c *gin.Context) {
	ms, err := h.milestoneLogic.StartMilestone(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Milestone started", ms)
}

// MarkCompleted 标记完成，可附带完成证明
func (h *MilestoneHandler) MarkCompleted(c *gin.Context) {
	var req MilestoneProofRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	ms, err := h.milestoneLogic.MarkMilestoneCompleted(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Proof)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Milestone marked as completed", ms)
}

func (h *MilestoneHandler) RequestVerification(c *gin.Context) {
	var req MilestoneProofRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	ms, err := h.milestoneLogic.RequestMilestoneVerification(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Proof)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Verification requested", ms)
}

// ReleaseFunds 放款
func (h *MilestoneHandler) ReleaseFunds(c *gin.Context) {
	result, err := h.milestoneLogic.ReleaseEscrowFunds(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Funds released", result)
}

func (h *MilestoneHandler) GetEscrowFunds(c *gin.Context) {
	funds, err := h.milestoneLogic.GetProjectEscrowFunds(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", funds)
}

func (h *MilestoneHandler) GetEscrowSummary(c *gin.Context) {
	summary, err := h.milestoneLogic.GetEscrowSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", summary)
}
