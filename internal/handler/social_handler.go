package handler

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

// SocialHandler 点赞和关注
type SocialHandler struct {
	socialLogic *logic.SocialLogic
}

func NewSocialHandler(social *logic.SocialLogic) *SocialHandler {
	return &SocialHandler{socialLogic: social}
}

func (h *SocialHandler) ToggleLike(c *gin.Context) {
	ctx := c.Request.Context()
	liked, err := h.socialLogic.ToggleLike(ctx, auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	count, err := h.socialLogic.GetProjectLikes(ctx, c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", LikeResponse{Liked: liked, Count: count})
}

// GetLikes 点赞数，登录时带上当前用户是否已点赞
func (h *SocialHandler) GetLikes(c *gin.Context) {
	ctx := c.Request.Context()
	count, err := h.socialLogic.GetProjectLikes(ctx, c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	liked, err := h.socialLogic.IsLiked(ctx, auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", LikeResponse{Liked: liked, Count: count})
}

func (h *SocialHandler) ToggleFollow(c *gin.Context) {
	following, err := h.socialLogic.ToggleFollow(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	h.writeFollow(c, following)
}

// GetFollowStats 用户的粉丝数和关注数
func (h *SocialHandler) GetFollowStats(c *gin.Context) {
	following, err := h.socialLogic.IsFollowing(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	h.writeFollow(c, following)
}

func (h *SocialHandler) writeFollow(c *gin.Context, following bool) {
	ctx := c.Request.Context()
	followers, err := h.socialLogic.GetFollowerCount(ctx, c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	followees, err := h.socialLogic.GetFollowingCount(ctx, c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", FollowResponse{Following: following, Followers: followers, Followees: followees})
}
