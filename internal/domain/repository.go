package domain

import (
	"context"
	"time"
)

// ActivityLogRepository 定义活动日志的追加写入与聚合查询。
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *LogEntry) (int64, error)
	Aggregate(ctx context.Context, filter LogFilter) (*LogTotals, error)
	AggregateByType(ctx context.Context, filter LogFilter) ([]*TypeUsage, error)
	ListRecent(ctx context.Context, filter LogFilter, limit int) ([]*LogEntry, error)
	SumTokens(ctx context.Context, filter LogFilter) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingsRepository 定义键值形式的配置存取，值为不透明字节。
type SettingsRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Repositories 聚合全部仓储接口，便于依赖注入。
type Repositories struct {
	ActivityLogs ActivityLogRepository
	Settings     SettingsRepository
}
