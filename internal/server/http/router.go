package http

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/cache"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// APIPrefix 为入站接口的命名空间。
const APIPrefix = "/api/contentcraft/v1"

// HealthDependencies 汇总健康检查所需的依赖。
type HealthDependencies struct {
	DB    *sql.DB
	Redis *redis.Client
}

// RouterOptions 用于自定义路由行为，例如注入中间件。
type RouterOptions struct {
	Middlewares       []gin.HandlerFunc
	HealthHandler     gin.HandlerFunc
	HealthDeps        *HealthDependencies
	GenerationHandler *GenerationHandler
	SettingsHandler   *SettingsHandler
	ActivityHandler   *ActivityHandler
	RateLimiter       *limiter.Limiter
	MetricsHandler    http.Handler
}

// NewEngine 根据环境配置初始化 Gin 引擎，并注册路由。
func NewEngine(cfg *config.Config, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	ginMode := gin.DebugMode
	switch cfg.App.Env {
	case "production":
		ginMode = gin.ReleaseMode
	case "test":
		ginMode = gin.TestMode
	}
	gin.SetMode(ginMode)

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.SecurityHeaders(cfg.Server.SecurityHeaders))
	engine.Use(cors.New(buildCORSConfig(cfg.Server)))

	for _, mw := range opts.Middlewares {
		if mw != nil {
			engine.Use(mw)
		}
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler(cfg, opts.HealthDeps)
	}
	engine.GET("/healthz", healthHandler)

	if opts.MetricsHandler != nil && cfg.Metrics.Enabled {
		metricsPath := cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		engine.GET(metricsPath, gin.WrapH(opts.MetricsHandler))
	}

	api := engine.Group(APIPrefix)
	api.Use(middleware.LimitRequestBody(cfg.Server.MaxRequestBody))
	api.Use(middleware.AuthGuard(cfg.Auth.AccessTokenSecret, cfg.Auth.APIKeys))
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimit(opts.RateLimiter, middleware.KeyByUserOrIP(), logger))
	}

	if opts.GenerationHandler != nil {
		opts.GenerationHandler.RegisterRoutes(api)
	}
	if opts.SettingsHandler != nil {
		opts.SettingsHandler.RegisterRoutes(api)
	}
	if opts.ActivityHandler != nil {
		opts.ActivityHandler.RegisterRoutes(api)
	}

	logger.Info("http router ready", zap.String("env", cfg.App.Env), zap.String("prefix", APIPrefix))

	return engine
}

func defaultHealthHandler(cfg *config.Config, deps *HealthDependencies) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		httpStatus := http.StatusOK
		result := gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
			"env":     cfg.App.Env,
		}

		if deps != nil {
			dependencies := gin.H{}
			check := func(name string, configured bool, probe func() error) {
				if !configured {
					dependencies[name] = gin.H{"status": "disabled"}
					return
				}
				if err := probe(); err != nil {
					httpStatus = http.StatusServiceUnavailable
					result["status"] = "degraded"
					dependencies[name] = gin.H{"status": "error", "error": err.Error()}
					return
				}
				dependencies[name] = gin.H{"status": "ok"}
			}

			check("database", deps.DB != nil, func() error {
				return database.Health(ctx.Request.Context(), deps.DB)
			})
			check("redis", deps.Redis != nil, func() error {
				return cache.Health(ctx.Request.Context(), deps.Redis)
			})

			result["dependencies"] = dependencies
		}

		ctx.JSON(httpStatus, result)
	}
}
