package handler

import (
	"errors"
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

// AuthHandler 邮箱验证码登录
type AuthHandler struct {
	otp    *auth.OTPService
	tokens *auth.TokenIssuer
	users  *logic.UserLogic
}

func NewAuthHandler(otp *auth.OTPService, tokens *auth.TokenIssuer, users *logic.UserLogic) *AuthHandler {
	return &AuthHandler{otp: otp, tokens: tokens, users: users}
}

// RequestCode 发送登录验证码
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req RequestCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.otp.RequestCode(c.Request.Context(), req.Email); err != nil {
		logger.Warn("Failed to send login code to %s: %v", req.Email, err)
		ErrorResponse(c, http.StatusBadRequest, "Failed to send login code")
		return
	}
	SuccessResponse(c, http.StatusOK, "Login code sent", nil)
}

// VerifyCode 校验验证码并签发令牌，首次登录时注册用户
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.otp.VerifyCode(ctx, req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrTooManyAttempts):
			ErrorResponse(c, http.StatusTooManyRequests, "Too many attempts, request a new code")
		case errors.Is(err, auth.ErrCodeExpired), errors.Is(err, auth.ErrCodeMismatch):
			ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired code")
		default:
			logger.Error("Failed to verify login code for %s: %v", req.Email, err)
			ErrorResponse(c, http.StatusInternalServerError, "Failed to verify code")
		}
		return
	}

	user, err := h.users.EnsureUser(ctx, req.Email)
	if err != nil {
		FailResponse(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("Failed to issue token for %s: %v", user.ID, err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	SuccessResponse(c, http.StatusOK, "Signed in", LoginResponse{Token: token, User: user})
}
