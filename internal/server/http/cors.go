package http

import (
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
)

// buildCORSConfig 根据白名单生成 CORS 配置。含 * 的条目按通配模式匹配，
// 空白名单或单独的 * 表示放行全部来源。
func buildCORSConfig(cfg config.ServerConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}

	var exact, patterns []string
	for _, origin := range cfg.CORS.AllowOrigins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			corsCfg.AllowAllOrigins = true
			return corsCfg
		case strings.Contains(origin, "*"):
			patterns = append(patterns, origin)
		default:
			exact = append(exact, origin)
		}
	}

	if len(exact) == 0 && len(patterns) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	corsCfg.AllowCredentials = cfg.CORS.AllowCredentials
	if len(patterns) == 0 {
		corsCfg.AllowOrigins = exact
		return corsCfg
	}

	corsCfg.AllowOriginFunc = func(origin string) bool {
		for _, allowed := range exact {
			if origin == allowed {
				return true
			}
		}
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, origin); ok {
				return true
			}
		}
		return false
	}
	return corsCfg
}
