package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/activity"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	authutil "github.com/mohammadsarwary/content-craft-ai/pkg/auth"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
)

const (
	// UserContextKey 在上下文中存储用户 ID（int64）。
	UserContextKey = "user_id"
	// UserRoleContextKey 在上下文中存储用户角色。
	UserRoleContextKey = "user_role"
	// APIKeyHeader 为程序化调用方使用的请求头。
	APIKeyHeader = "X-API-Key"
)

// AuthGuard 校验 API Key 或 Bearer Token，并注入用户信息。
// 用户编号同时写入请求 context，供活动日志使用。
func AuthGuard(accessSecret string, apiKeys []config.APIKeyConfig) gin.HandlerFunc {
	verifier := newAPIKeyVerifier(apiKeys)
	return func(ctx *gin.Context) {
		if key := strings.TrimSpace(ctx.GetHeader(APIKeyHeader)); key != "" {
			matched, ok := verifier.match(key)
			if !ok {
				httpx.RespondError(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key.", nil)
				return
			}
			authenticate(ctx, matched.UserID, matched.Role)
			return
		}

		header := ctx.GetHeader("Authorization")
		if header == "" {
			httpx.RespondError(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.", nil)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpx.RespondError(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Malformed authorization header.", nil)
			return
		}

		claims, err := authutil.ParseToken(strings.TrimSpace(parts[1]), accessSecret)
		if err != nil {
			httpx.RespondError(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token.", nil)
			return
		}
		authenticate(ctx, claims.UserID, claims.Role)
	}
}

func authenticate(ctx *gin.Context, userID int64, role string) {
	ctx.Set(UserContextKey, userID)
	ctx.Set(UserRoleContextKey, strings.ToLower(strings.TrimSpace(role)))
	ctx.Request = ctx.Request.WithContext(activity.WithUserID(ctx.Request.Context(), userID))
	ctx.Next()
}

// RequireCapability 验证当前角色是否具备指定能力。
func RequireCapability(capability string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !HasCapability(ctx.GetString(UserRoleContextKey), capability) {
			httpx.RespondError(ctx, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action.", nil)
			return
		}
		ctx.Next()
	}
}
