package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// KeyFunc 提取用于限流的 key。
type KeyFunc func(*gin.Context) string

// RateLimit 返回基于 limiter 的 Gin 中间件。存储不可用时放行并记录告警。
func RateLimit(l *limiter.Limiter, keyFunc KeyFunc, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyFunc == nil {
		keyFunc = KeyByClientIP()
	}

	return func(ctx *gin.Context) {
		key := keyFunc(ctx)
		if key == "" {
			key = ctx.ClientIP()
		}

		state, err := l.Get(ctx.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			ctx.Next()
			return
		}

		header := ctx.Writer.Header()
		header.Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		header.Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))

		if state.Reached {
			httpx.RespondError(ctx, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded. Please try again later.", nil)
			return
		}

		ctx.Next()
	}
}

// KeyByClientIP 使用客户端 IP 作为限流 key。
func KeyByClientIP() KeyFunc {
	return func(ctx *gin.Context) string {
		return ctx.ClientIP()
	}
}

// KeyByUserOrIP 优先使用用户 ID，否则回退到 IP。
func KeyByUserOrIP() KeyFunc {
	return func(ctx *gin.Context) string {
		if userID := CurrentUserID(ctx); userID > 0 {
			return "user:" + strconv.FormatInt(userID, 10)
		}
		return "ip:" + ctx.ClientIP()
	}
}
