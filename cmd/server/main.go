package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/app"
	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/cache"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database"
	"github.com/mohammadsarwary/content-craft-ai/internal/middleware"
	httpserver "github.com/mohammadsarwary/content-craft-ai/internal/server/http"
	"github.com/mohammadsarwary/content-craft-ai/internal/service/generation"
	authutil "github.com/mohammadsarwary/content-craft-ai/pkg/auth"
	"github.com/mohammadsarwary/content-craft-ai/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigDir, opts.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if handled, err := runCredentialCommand(cfg, opts); handled {
		if err != nil {
			log.Fatal("凭据命令执行失败", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.MigrateOnly {
		if err := database.Migrate(ctx, cfg.Database, log); err != nil {
			log.Fatal("数据库迁移失败", zap.Error(err))
		}
		return
	}

	container, cleanup, err := infra.Initialize(ctx, cfg, log)
	if err != nil {
		log.Fatal("初始化依赖失败", zap.Error(err))
	}
	defer func() {
		if err := cleanup(context.Background()); err != nil {
			log.Warn("释放资源失败", zap.Error(err))
		}
	}()

	if opts.PurgeLogsDays >= 0 {
		removed, err := container.Activity.DeleteOldLogs(ctx, opts.PurgeLogsDays)
		if err != nil {
			log.Error("清理活动日志失败", zap.Error(err))
			return
		}
		fmt.Printf("removed %d activity log entries older than %d days\n", removed, opts.PurgeLogsDays)
		return
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	subscribeAuditLog(container.Events, log)

	client := backend.NewClient(container.Settings, container.Activity, log, backend.Options{
		Timeout:      cfg.Backend.Timeout,
		ProbeTimeout: cfg.Backend.ProbeTimeout,
		Product:      cfg.Backend.Product,
		Version:      cfg.Backend.Version,
		Metrics:      backend.NewMetrics(registry),
		Publisher:    container.Events,
	})
	service := generation.NewService(
		client,
		container.Settings,
		cache.NewResponseCache(container.Redis),
		container.Events,
		log,
		generation.Options{BrandTrainTimeout: cfg.Backend.BrandTrainTimeout},
	)

	routerOpts := httpserver.RouterOptions{
		Middlewares: []gin.HandlerFunc{
			middleware.RequestLogger(log),
		},
		HealthDeps:        &httpserver.HealthDependencies{DB: container.DB, Redis: container.Redis},
		GenerationHandler: httpserver.NewGenerationHandler(service, container.Settings, log),
		SettingsHandler:   httpserver.NewSettingsHandler(container.Settings, client, log),
		ActivityHandler:   httpserver.NewActivityHandler(container.Activity, log),
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if cfg.Server.RateLimit != "" {
		rateLimiter, err := cache.NewRateLimiter(cfg.Server.RateLimit, container.Redis)
		if err != nil {
			log.Fatal("初始化限流失败", zap.Error(err))
		}
		routerOpts.RateLimiter = rateLimiter
	}

	engine := httpserver.NewEngine(cfg, log, routerOpts)
	application := app.New(cfg, log, engine)

	if err := application.Run(ctx); err != nil {
		log.Error("服务运行异常", zap.Error(err))
	}
}

// subscribeAuditLog 将生成相关事件写入结构化日志。
func subscribeAuditLog(bus *event.Bus, log *zap.Logger) {
	bus.Subscribe(event.GenerationFailed, func(evt event.Event) {
		if p, ok := evt.Payload.(event.FailurePayload); ok {
			log.Warn("generation failed", zap.String("endpoint", p.Endpoint), zap.Error(p.Err))
		}
	})
	bus.Subscribe(event.BrandTrained, func(event.Event) {
		log.Info("brand profile updated")
	})
	bus.Subscribe(event.AltTextGenerated, func(evt event.Event) {
		if p, ok := evt.Payload.(event.AltTextPayload); ok {
			log.Info("alt text generated", zap.Int64("attachment_id", p.AttachmentID))
		}
	})
	bus.Subscribe(event.SettingsSaved, func(event.Event) {
		log.Debug("settings saved event dispatched")
	})
}

// runCredentialCommand 处理无需数据库的一次性凭据命令。
func runCredentialCommand(cfg *config.Config, opts options) (bool, error) {
	switch {
	case opts.GenerateAPIKey:
		plain, err := authutil.GenerateAPIKey()
		if err != nil {
			return true, err
		}
		hash, err := authutil.HashAPIKey(plain)
		if err != nil {
			return true, err
		}
		fmt.Printf("api key: %s\nprefix:  %s\nhash:    %s\n", plain, authutil.APIKeyPrefix(plain), hash)
		return true, nil
	case opts.HashAPIKey != "":
		hash, err := authutil.HashAPIKey(opts.HashAPIKey)
		if err != nil {
			return true, err
		}
		fmt.Println(hash)
		return true, nil
	case opts.IssueTokenRole != "":
		if !middleware.KnownRole(opts.IssueTokenRole) {
			return true, fmt.Errorf("unknown role %q", opts.IssueTokenRole)
		}
		if opts.IssueTokenUser <= 0 {
			return true, errors.New("--issue-token-user must be a positive user id")
		}
		token, err := authutil.IssueAccessToken(cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenTTL, opts.IssueTokenUser, opts.IssueTokenRole)
		if err != nil {
			return true, err
		}
		fmt.Println(token)
		return true, nil
	}
	return false, nil
}

// options 控制命令行参数。
type options struct {
	ConfigDir      string
	Env            string
	MigrateOnly    bool
	PurgeLogsDays  int
	GenerateAPIKey bool
	HashAPIKey     string
	IssueTokenUser int64
	IssueTokenRole string
}

func parseFlags() options {
	var opts options
	pflag.StringVar(&opts.ConfigDir, "config-dir", "./config", "配置文件目录")
	pflag.StringVar(&opts.Env, "env", "", "强制指定运行环境，覆盖 CONTENTCRAFT_ENV")
	pflag.BoolVar(&opts.MigrateOnly, "migrate-only", false, "仅执行数据库迁移后退出")
	pflag.IntVar(&opts.PurgeLogsDays, "purge-logs-days", -1, "删除早于 N 天的活动日志后退出")
	pflag.BoolVar(&opts.GenerateAPIKey, "generate-api-key", false, "生成新的 API Key 及其哈希后退出")
	pflag.StringVar(&opts.HashAPIKey, "hash-api-key", "", "输出给定 API Key 的 bcrypt 哈希后退出")
	pflag.Int64Var(&opts.IssueTokenUser, "issue-token-user", 0, "签发访问令牌的用户编号")
	pflag.StringVar(&opts.IssueTokenRole, "issue-token-role", "", "签发访问令牌的角色（admin/editor/author）后退出")
	pflag.Parse()
	return opts
}
