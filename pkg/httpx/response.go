package httpx

import "github.com/gin-gonic/gin"

// SuccessResponse 标准成功响应结构。
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse 标准错误响应结构，error 为面向用户的可读信息。
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// RespondOK 输出成功响应。
func RespondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, SuccessResponse{Success: true, Data: data})
}

// RespondMessage 输出只带提示信息的成功响应。
func RespondMessage(ctx *gin.Context, message string) {
	ctx.JSON(200, SuccessResponse{Success: true, Message: message})
}

// RespondError 输出错误响应并终止处理流程。
func RespondError(ctx *gin.Context, status int, code string, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}
