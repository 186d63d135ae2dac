package infra

import (
	"context"
	"database/sql"

	"github.com/mohammadsarwary/content-craft-ai/internal/activity"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/bootstrap"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/cache"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/repository"
	"github.com/mohammadsarwary/content-craft-ai/internal/settings"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Container 持有应用依赖资源，负责集中关闭。Redis 未配置时为 nil。
type Container struct {
	DB       *sql.DB
	Redis    *redis.Client
	Repos    *domain.Repositories
	Events   *event.Bus
	Settings *settings.Store
	Activity *activity.Logger
}

// Initialize 构建各类依赖并返回关闭函数。
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, func(context.Context) error, error) {
	container := &Container{}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, cfg.Database, logger); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.New(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	container.DB = db

	dialect := database.NewDialect(cfg.Database.Driver)
	container.Repos = repository.NewSQLRepositories(db, dialect)

	if cfg.Redis.Enabled() {
		redisClient, err := cache.New(ctx, cfg.Redis, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		container.Redis = redisClient
	} else {
		logger.Info("redis disabled; response cache and shared rate limiting off")
	}

	cleanup := func(ctx context.Context) error {
		var errs error
		if container.DB != nil {
			if err := container.DB.Close(); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if container.Redis != nil {
			if err := container.Redis.Close(); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		return errs
	}

	container.Events = event.NewBus(logger)
	container.Settings = settings.NewStore(container.Repos.Settings, container.Events, logger)
	container.Activity = activity.NewLogger(container.Repos.ActivityLogs, logger)

	if err := bootstrap.EnsureDefaultSettings(ctx, container.Settings, cfg.Backend, logger); err != nil {
		_ = cleanup(ctx)
		return nil, nil, err
	}

	return container, cleanup, nil
}
