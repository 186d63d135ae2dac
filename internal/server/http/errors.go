package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/service/generation"
	"github.com/mohammadsarwary/content-craft-ai/pkg/httpx"
	"go.uber.org/zap"
)

// respondFailure 将服务层错误映射为统一的错误响应。后端失败一律返回 500。
func respondFailure(ctx *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, generation.ErrInvalidInput) {
		httpx.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	var failure *backend.Failure
	if errors.As(err, &failure) {
		message := failure.Message
		if message == "" {
			message = backend.MessageForCode(failure.Kind)
		}
		httpx.RespondError(ctx, http.StatusInternalServerError, failure.Kind, message, nil)
		return
	}

	logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	httpx.RespondError(ctx, http.StatusInternalServerError, "INTERNAL_ERROR", backend.MessageForCode(""), nil)
}
