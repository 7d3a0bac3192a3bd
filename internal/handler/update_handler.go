package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

// UpdateHandler 项目动态
type UpdateHandler struct {
	updateLogic *logic.UpdateLogic
}

func NewUpdateHandler(updates *logic.UpdateLogic) *UpdateHandler {
	return &UpdateHandler{updateLogic: updates}
}

func (h *UpdateHandler) CreateUpdate(c *gin.Context) {
	var in logic.CreateUpdateInput
	if !bindJSON(c, &in) {
		return
	}
	in.ProjectID = c.Param("id")
	update, err := h.updateLogic.CreatePostUpdate(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Update posted", update)
}

func (h *UpdateHandler) GetUpdates(c *gin.Context) {
	updates, err := h.updateLogic.GetProjectUpdates(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", updates)
}
