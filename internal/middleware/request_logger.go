package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader 为请求 ID 的请求/响应头。
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey 在上下文中存储请求 ID。
	RequestIDContextKey = "request_id"
)

// RequestLogger 为每个请求分配请求 ID 并记录访问日志。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(ctx.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		ctx.Set(RequestIDContextKey, requestID)
		ctx.Writer.Header().Set(RequestIDHeader, requestID)

		ctx.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
			zap.Int("size", ctx.Writer.Size()),
		}
		if userID := CurrentUserID(ctx); userID > 0 {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if len(ctx.Errors) > 0 {
			fields = append(fields, zap.String("errors", ctx.Errors.String()))
		}

		if ctx.Writer.Status() >= 500 {
			logger.Warn("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}
