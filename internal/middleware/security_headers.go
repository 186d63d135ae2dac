package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
)

type headerValue struct {
	name  string
	value string
}

// SecurityHeaders 设置通用 Web 安全响应头，空值的头不写出。
func SecurityHeaders(cfg config.SecurityHeadersConfig) gin.HandlerFunc {
	candidates := []headerValue{
		{"X-Frame-Options", cfg.FrameOptions},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Content-Security-Policy", cfg.ContentSecurityPolicy},
		{"X-XSS-Protection", cfg.XSSProtection},
		{"Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy},
		{"Cross-Origin-Embedder-Policy", cfg.CrossOriginEmbedderPolicy},
		{"Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy},
	}
	if cfg.ContentTypeNosniff {
		candidates = append(candidates, headerValue{"X-Content-Type-Options", "nosniff"})
	}

	headers := make([]headerValue, 0, len(candidates))
	for _, h := range candidates {
		if v := strings.TrimSpace(h.value); v != "" {
			headers = append(headers, headerValue{h.name, v})
		}
	}

	return func(ctx *gin.Context) {
		out := ctx.Writer.Header()
		for _, h := range headers {
			out.Set(h.name, h.value)
		}
		ctx.Next()
	}
}
