package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
)

// LimitRequestBody 限制请求体大小。声明长度超限时直接返回 413，
// 未声明长度的请求在读取超限时由绑定失败处理。
func LimitRequestBody(maxBytes int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if maxBytes <= 0 {
			ctx.Next()
			return
		}
		if ctx.Request.ContentLength > maxBytes {
			httpx.RespondError(ctx, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large.", nil)
			return
		}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)
		ctx.Next()
	}
}
