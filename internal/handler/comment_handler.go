package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentLogic *logic.CommentLogic
}

func NewCommentHandler(comments *logic.CommentLogic) *CommentHandler {
	return &CommentHandler{commentLogic: comments}
}

// GetComments 项目评论，parent_id 参数取某条评论的回复
func (h *CommentHandler) GetComments(c *gin.Context) {
	var parentID *string
	if p := c.Query("parent_id"); p != "" {
		parentID = &p
	}
	comments, err := h.commentLogic.GetComments(c.Request.Context(), c.Param("id"), parentID)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", comments)
}

func (h *CommentHandler) GetCommentCount(c *gin.Context) {
	count, err := h.commentLogic.GetCommentCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"count": count})
}

// CreateComment 发表评论
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentLogic.CreateComment(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Content, req.ParentID)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Comment posted", comment)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentLogic.UpdateComment(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Content)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Comment updated", comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.commentLogic.DeleteComment(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Comment deleted", nil)
}
