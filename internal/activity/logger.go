// Package activity 负责后端调用结果的追加记录与统计。
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"go.uber.org/zap"
)

// RecentLimit 为统计结果中附带的最近记录条数。
const RecentLimit = 10

const defaultFailureMessage = "unknown error"

// ErrInvalidRetention 表示保留天数非法。
var ErrInvalidRetention = errors.New("retention days must not be negative")

// Record 描述一次待写入的调用结果。
type Record struct {
	Type         domain.LogType
	TargetID     *int64
	TokensUsed   int64
	LatencyMs    int64
	Status       domain.LogStatus
	ErrorMessage string
}

// Stats 为 GetStats 的返回结构。
type Stats struct {
	TotalGenerations     int64               `json:"total_generations"`
	Successful           int64               `json:"successful"`
	Failed               int64               `json:"failed"`
	TotalTokens          int64               `json:"total_tokens"`
	TotalTokensFormatted string              `json:"total_tokens_formatted"`
	AvgLatencyMs         float64             `json:"avg_latency"`
	ByType               []*domain.TypeUsage `json:"by_type"`
	Recent               []*domain.LogEntry  `json:"recent"`
}

// Logger 写入活动日志并计算统计。
type Logger struct {
	repo   domain.ActivityLogRepository
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewLogger 创建活动日志记录器。
func NewLogger(repo domain.ActivityLogRepository, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{repo: repo, logger: logger, nowFn: time.Now}
}

// WithClock 允许注入自定义时间函数，便于测试。
func (l *Logger) WithClock(now func() time.Time) {
	if now != nil {
		l.nowFn = now
	}
}

// Log 追加一条记录并返回新编号。用户编号取自 ctx，缺省为 0。
func (l *Logger) Log(ctx context.Context, rec Record) (int64, error) {
	entry := &domain.LogEntry{
		UserID:     UserID(ctx),
		Type:       normalizeType(rec.Type),
		TargetID:   rec.TargetID,
		TokensUsed: nonNegative(rec.TokensUsed),
		LatencyMs:  nonNegative(rec.LatencyMs),
		Status:     domain.LogStatusSuccess,
		CreatedAt:  l.nowFn(),
	}
	if rec.Status == domain.LogStatusFailed {
		entry.Status = domain.LogStatusFailed
		msg := strings.TrimSpace(rec.ErrorMessage)
		if msg == "" {
			msg = defaultFailureMessage
		}
		entry.ErrorMessage = &msg
	}

	id, err := l.repo.Create(ctx, entry)
	if err != nil {
		l.logger.Error("write activity log failed",
			zap.String("type", string(entry.Type)),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("write activity log: %w", err)
	}
	return id, nil
}

// GetStats 汇总指定用户（0 表示全部）在日期范围内的调用情况，日期边界按天包含。
func (l *Logger) GetStats(ctx context.Context, userID int64, start, end *time.Time) (*Stats, error) {
	filter := buildFilter(userID, start, end)

	totals, err := l.repo.Aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}
	byType, err := l.repo.AggregateByType(ctx, filter)
	if err != nil {
		return nil, err
	}
	recent, err := l.repo.ListRecent(ctx, filter, RecentLimit)
	if err != nil {
		return nil, err
	}
	if byType == nil {
		byType = []*domain.TypeUsage{}
	}
	if recent == nil {
		recent = []*domain.LogEntry{}
	}

	return &Stats{
		TotalGenerations:     totals.TotalGenerations,
		Successful:           totals.Successful,
		Failed:               totals.Failed,
		TotalTokens:          totals.TotalTokens,
		TotalTokensFormatted: FormatTokens(totals.TotalTokens),
		AvgLatencyMs:         totals.AvgLatencyMs,
		ByType:               byType,
		Recent:               recent,
	}, nil
}

// GetTokenUsage 返回范围内的令牌总数，无记录时为 0。
func (l *Logger) GetTokenUsage(ctx context.Context, userID int64, start, end *time.Time) (int64, error) {
	return l.repo.SumTokens(ctx, buildFilter(userID, start, end))
}

// DeleteOldLogs 删除早于 days 天前的记录并返回删除条数。
func (l *Logger) DeleteOldLogs(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, ErrInvalidRetention
	}
	cutoff := l.nowFn().AddDate(0, 0, -days)
	removed, err := l.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	l.logger.Info("old activity logs purged", zap.Int("days", days), zap.Int64("removed", removed))
	return removed, nil
}

// buildFilter 只保留日期部分：起始日 00:00 起，截止日次日 00:00 前。
func buildFilter(userID int64, start, end *time.Time) domain.LogFilter {
	filter := domain.LogFilter{UserID: userID}
	if start != nil {
		from := truncateDay(*start)
		filter.From = &from
	}
	if end != nil {
		until := truncateDay(*end).AddDate(0, 0, 1)
		filter.Until = &until
	}
	return filter
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeType(t domain.LogType) domain.LogType {
	switch t {
	case domain.LogTypeContent, domain.LogTypeProduct, domain.LogTypeImage, domain.LogTypeSEO, domain.LogTypeBrand:
		return t
	default:
		return domain.LogTypeOther
	}
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
