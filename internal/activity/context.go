package activity

import "context"

type userIDKey struct{}

// WithUserID 将调用者编号写入 ctx，供日志记录使用。
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID 读取 ctx 中的调用者编号，缺失时返回 0。
func UserID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(userIDKey{}).(int64)
	return id
}
