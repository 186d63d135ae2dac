package middleware

import "github.com/gin-gonic/gin"

// CurrentUserID 返回认证后的用户编号，未认证时为 0。
func CurrentUserID(ctx *gin.Context) int64 {
	if v, ok := ctx.Get(UserContextKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// CurrentRole 返回认证后的角色。
func CurrentRole(ctx *gin.Context) string {
	return ctx.GetString(UserRoleContextKey)
}
