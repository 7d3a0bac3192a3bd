package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const contextUserID = "user_id"

// ExtractToken 从 Authorization: Bearer 头里取令牌
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware 解析令牌，有效时把用户 ID 放进上下文，不拦截请求
func Middleware(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := ExtractToken(c.Request); raw != "" {
			if userID, err := tokens.Parse(raw); err == nil {
				c.Set(contextUserID, userID)
			}
		}
		c.Next()
	}
}

// RequireUser 没有登录用户时返回 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "User not authenticated",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}

// UserID 当前登录用户，未登录为空串
func UserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
