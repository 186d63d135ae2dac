package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
	"github.com/mohammadsarwary/content-craft-ai/internal/service/generation"
	"github.com/mohammadsarwary/content-craft-ai/internal/settings"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
	"go.uber.org/zap"
)

// GenerationHandler 处理生成类请求与品牌档案。
type GenerationHandler struct {
	service *generation.Service
	store   *settings.Store
	logger  *zap.Logger
}

// NewGenerationHandler 创建 GenerationHandler。
func NewGenerationHandler(service *generation.Service, store *settings.Store, logger *zap.Logger) *GenerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{service: service, store: store, logger: logger}
}

// RegisterRoutes 注册生成相关路由，每条路由按能力授权。
func (h *GenerationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/content/generate", middleware.RequireCapability(middleware.CapEditPosts), h.GenerateContent)
	rg.POST("/product/generate", middleware.RequireCapability(middleware.CapEditProducts), h.GenerateProduct)
	rg.POST("/image/analyze", middleware.RequireCapability(middleware.CapUploadFiles), h.AnalyzeImage)
	rg.POST("/seo/optimize", middleware.RequireCapability(middleware.CapEditPosts), h.OptimizeSEO)
	rg.POST("/bulk/process", middleware.RequireCapability(middleware.CapEditProducts), h.BulkProcess)

	brand := rg.Group("/brand", middleware.RequireCapability(middleware.CapManageOptions))
	brand.POST("/train", h.TrainBrand)
	brand.GET("/profile", h.GetBrandProfile)
	brand.DELETE("/profile", h.DisableBrandProfile)
}

// GenerateContent 生成文章。
func (h *GenerationHandler) GenerateContent(ctx *gin.Context) {
	var req generation.ContentInput
	if !bindJSON(ctx, &req) {
		return
	}
	h.respond(ctx, func() (*backend.Response, error) {
		return h.service.GenerateContent(ctx.Request.Context(), req)
	})
}

// GenerateProduct 生成商品文案。
func (h *GenerationHandler) GenerateProduct(ctx *gin.Context) {
	var req generation.ProductInput
	if !bindJSON(ctx, &req) {
		return
	}
	h.respond(ctx, func() (*backend.Response, error) {
		return h.service.GenerateProduct(ctx.Request.Context(), req)
	})
}

// AnalyzeImage 分析图片。
func (h *GenerationHandler) AnalyzeImage(ctx *gin.Context) {
	var req generation.ImageInput
	if !bindJSON(ctx, &req) {
		return
	}
	h.respond(ctx, func() (*backend.Response, error) {
		return h.service.AnalyzeImage(ctx.Request.Context(), req)
	})
}

// OptimizeSEO 优化 SEO。
func (h *GenerationHandler) OptimizeSEO(ctx *gin.Context) {
	var req generation.SEOInput
	if !bindJSON(ctx, &req) {
		return
	}
	h.respond(ctx, func() (*backend.Response, error) {
		return h.service.OptimizeSEO(ctx.Request.Context(), req)
	})
}

// TrainBrand 训练品牌风格。
func (h *GenerationHandler) TrainBrand(ctx *gin.Context) {
	var req generation.BrandTrainInput
	if !bindJSON(ctx, &req) {
		return
	}
	h.respond(ctx, func() (*backend.Response, error) {
		return h.service.TrainBrand(ctx.Request.Context(), req)
	})
}

// GetBrandProfile 返回当前品牌档案。
func (h *GenerationHandler) GetBrandProfile(ctx *gin.Context) {
	profile, err := h.store.BrandProfile(ctx.Request.Context())
	if err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondOK(ctx, profile)
}

// DisableBrandProfile 停用并清空品牌档案。
func (h *GenerationHandler) DisableBrandProfile(ctx *gin.Context) {
	if err := h.store.DisableBrandProfile(ctx.Request.Context()); err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	httpx.RespondMessage(ctx, "Brand profile disabled.")
}

// BulkProcess 仅确认接收，批量任务不在本服务内执行。
func (h *GenerationHandler) BulkProcess(ctx *gin.Context) {
	httpx.RespondMessage(ctx, "Bulk processing started.")
}

func (h *GenerationHandler) respond(ctx *gin.Context, call func() (*backend.Response, error)) {
	resp, err := call()
	if err != nil {
		respondFailure(ctx, h.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, resp.Body)
}

// bindJSON 解析请求体，空请求体视为空对象。
func bindJSON(ctx *gin.Context, dst any) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(dst); err != nil {
		httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error(), nil)
		return false
	}
	return true
}
