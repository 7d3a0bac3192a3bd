package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// statusFor 业务错误分类对应的 HTTP 状态码
func statusFor(kind logic.ErrorKind) int {
	switch kind {
	case logic.KindInvalid:
		return http.StatusBadRequest
	case logic.KindUnauthenticated:
		return http.StatusUnauthorized
	case logic.KindForbidden:
		return http.StatusForbidden
	case logic.KindNotFound:
		return http.StatusNotFound
	case logic.KindPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FailResponse 按业务错误写响应
func FailResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusFor(logic.KindOf(err)), logic.Message(err))
}

// bindJSON 解析请求体，失败时直接写 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// bindOptionalJSON 请求体可以为空，分块传输时 ContentLength 为 -1
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
