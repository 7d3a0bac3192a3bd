package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

type BackingHandler struct {
	backingLogic *logic.BackingLogic
}

func NewBackingHandler(backings *logic.BackingLogic) *BackingHandler {
	return &BackingHandler{backingLogic: backings}
}

// CreateBacking 支持项目
func (h *BackingHandler) CreateBacking(c *gin.Context) {
	var req CreateBackingRequest
	if !bindJSON(c, &req) {
		return
	}
	backing, err := h.backingLogic.CreateBacking(c.Request.Context(), auth.UserID(c), logic.CreateBackingInput{
		ProjectID: c.Param("id"),
		RewardID:  req.RewardID,
		Amount:    req.Amount,
	})
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Backing confirmed", backing)
}

// GetProjectBackers 项目支持者列表，仅创建者可见
func (h *BackingHandler) GetProjectBackers(c *gin.Context) {
	backings, err := h.backingLogic.GetProjectBackers(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", backings)
}

// GetMyBackings 当前用户的认筹记录
func (h *BackingHandler) GetMyBackings(c *gin.Context) {
	backings, err := h.backingLogic.GetUserBackings(c.Request.Context(), auth.UserID(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", backings)
}
