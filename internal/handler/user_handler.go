package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/chxdon9587/NextForD/internal/model"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户资料和角色
type UserHandler struct {
	userLogic *logic.UserLogic
	roleLogic *logic.RoleLogic
}

func NewUserHandler(users *logic.UserLogic, roles *logic.RoleLogic) *UserHandler {
	return &UserHandler{userLogic: users, roleLogic: roles}
}

// GetMe 当前用户资料和角色
func (h *UserHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.userLogic.GetUser(ctx, auth.UserID(c))
	if err != nil {
		FailResponse(c, err)
		return
	}
	roles, err := h.roleLogic.GetUserRoles(ctx, user.ID)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"user": user, "roles": roles})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var in logic.UpdateProfileInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.userLogic.UpdateProfile(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile updated", user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userLogic.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", user)
}

func (h *UserHandler) GetRoles(c *gin.Context) {
	roles, err := h.roleLogic.GetUserRoles(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", roles)
}

// AssignRole 管理员分配角色
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.roleLogic.AssignRole(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Role); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Role assigned", nil)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	role := model.Role(c.Param("role"))
	if err := h.roleLogic.RemoveRole(c.Request.Context(), auth.UserID(c), c.Param("id"), role); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Role removed", nil)
}
