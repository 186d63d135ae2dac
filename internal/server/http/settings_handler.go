package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
	"github.com/mohammadsarwary/content-craft-ai/internal/settings"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
	"go.uber.org/zap"
)

// ConnectionTester 探测后端连通性。
type ConnectionTester interface {
	TestConnection(ctx context.Context) backend.ConnectionStatus
}

// SettingsHandler 处理设置读写与连通性测试。
type SettingsHandler struct {
	store  *settings.Store
	tester ConnectionTester
	logger *zap.Logger
}

// NewSettingsHandler 创建 SettingsHandler。
func NewSettingsHandler(store *settings.Store, tester ConnectionTester, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{store: store, tester: tester, logger: logger}
}

type settingsView struct {
	Settings   domain.Settings `json:"settings"`
	Configured bool            `json:"configured"`
}

// RegisterRoutes 注册设置相关路由。
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	manage := rg.Group("/settings", middleware.RequireCapability(middleware.CapManageOptions))
	manage.GET("", h.GetSettings)
	manage.PUT("", h.UpdateSettings)
	manage.GET("/test", h.TestConnection)

	rg.GET("/options", h.ListOptions)
}

// GetSettings 返回脱敏后的设置。
func (h *SettingsHandler) GetSettings(ctx *gin.Context) {
	current, err := h.store.Load(ctx.Request.Context())
	if err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, settingsView{Settings: settings.Masked(current), Configured: current.Configured()})
}

// UpdateSettings 部分更新设置。
func (h *SettingsHandler) UpdateSettings(ctx *gin.Context) {
	var patch settings.Patch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error(), nil)
		return
	}

	next, err := h.store.Update(ctx.Request.Context(), patch)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSetting) {
			httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_SETTING", err.Error(), nil)
			return
		}
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, settingsView{Settings: settings.Masked(next), Configured: next.Configured()})
}

// TestConnection 探测后端健康检查接口。
func (h *SettingsHandler) TestConnection(ctx *gin.Context) {
	status := h.tester.TestConnection(ctx.Request.Context())
	if !status.Connected {
		httpx.RespondError(ctx, http.StatusInternalServerError, "CONNECTION_FAILED", status.Message, nil)
		return
	}
	httpx.RespondOK(ctx, status)
}

// ListOptions 返回界面下拉选项。
func (h *SettingsHandler) ListOptions(ctx *gin.Context) {
	httpx.RespondOK(ctx, settings.Options())
}
