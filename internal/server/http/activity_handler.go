package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/activity"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
	"go.uber.org/zap"
)

const (
	dateLayout           = "2006-01-02"
	defaultRetentionDays = 90
)

// ActivityHandler 处理统计查询与日志清理。
type ActivityHandler struct {
	logs   *activity.Logger
	logger *zap.Logger
}

// NewActivityHandler 创建 ActivityHandler。
func NewActivityHandler(logs *activity.Logger, logger *zap.Logger) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{logs: logs, logger: logger}
}

// RegisterRoutes 注册统计相关路由。
func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stats := rg.Group("/stats", middleware.RequireCapability(middleware.CapEditPosts))
	stats.GET("", h.GetStats)
	stats.GET("/tokens", h.GetTokenUsage)

	rg.DELETE("/logs", middleware.RequireCapability(middleware.CapManageOptions), h.DeleteOldLogs)
}

type statsQuery struct {
	userID int64
	start  *time.Time
	end    *time.Time
}

// GetStats 返回调用统计。
func (h *ActivityHandler) GetStats(ctx *gin.Context) {
	q, ok := h.parseQuery(ctx)
	if !ok {
		return
	}
	stats, err := h.logs.GetStats(ctx.Request.Context(), q.userID, q.start, q.end)
	if err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, stats)
}

// GetTokenUsage 返回令牌用量。
func (h *ActivityHandler) GetTokenUsage(ctx *gin.Context) {
	q, ok := h.parseQuery(ctx)
	if !ok {
		return
	}
	total, err := h.logs.GetTokenUsage(ctx.Request.Context(), q.userID, q.start, q.end)
	if err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, gin.H{
		"total_tokens":           total,
		"total_tokens_formatted": activity.FormatTokens(total),
	})
}

// DeleteOldLogs 删除早于 days 天的日志，days 缺省为 90。
func (h *ActivityHandler) DeleteOldLogs(ctx *gin.Context) {
	days := defaultRetentionDays
	if raw := strings.TrimSpace(ctx.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST", "days must be an integer", nil)
			return
		}
		days = parsed
	}

	removed, err := h.logs.DeleteOldLogs(ctx.Request.Context(), days)
	if err != nil {
		if errors.Is(err, activity.ErrInvalidRetention) {
			httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, gin.H{"deleted": removed, "days": days})
}

// parseQuery 解析 user_id 与日期范围。非管理者只能查询自己的数据。
func (h *ActivityHandler) parseQuery(ctx *gin.Context) (statsQuery, bool) {
	caller := middleware.CurrentUserID(ctx)
	manager := middleware.HasCapability(middleware.CurrentRole(ctx), middleware.CapManageOptions)

	q := statsQuery{}
	if !manager {
		// user_id 为 0 表示全部用户，无编号的调用方不能落入该范围
		if caller <= 0 {
			httpx.RespondError(ctx, http.StatusForbidden, "FORBIDDEN", "Stats require an identified user.", nil)
			return q, false
		}
		q.userID = caller
	}
	if raw := strings.TrimSpace(ctx.Query("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST", "user_id must be a non-negative integer", nil)
			return q, false
		}
		if !manager && id != caller {
			httpx.RespondError(ctx, http.StatusForbidden, "FORBIDDEN", "You can only view your own stats.", nil)
			return q, false
		}
		q.userID = id
	}

	var ok bool
	if q.start, ok = parseDate(ctx, "start_date"); !ok {
		return q, false
	}
	if q.end, ok = parseDate(ctx, "end_date"); !ok {
		return q, false
	}
	return q, true
}

func parseDate(ctx *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST", key+" must use YYYY-MM-DD", nil)
		return nil, false
	}
	return &t, true
}
