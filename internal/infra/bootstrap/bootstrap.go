package bootstrap

import (
	"context"
	"strings"

	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"go.uber.org/zap"
)

// SettingsStore 为种子数据所需的设置存储能力。
type SettingsStore interface {
	Exists(ctx context.Context) (bool, error)
	Save(ctx context.Context, value domain.Settings) error
}

// EnsureDefaultSettings 在尚无设置时写入默认值，并带上配置中的后端地址与密钥。
// 已存在的设置不会被覆盖。
func EnsureDefaultSettings(ctx context.Context, store SettingsStore, cfg config.BackendConfig, logger *zap.Logger) error {
	exists, err := store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		logger.Info("settings exist; seeding skipped")
		return nil
	}

	seed := domain.DefaultSettings()
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		seed.APIBaseURL = baseURL
	}
	seed.APISecret = strings.TrimSpace(cfg.Secret)

	if err := store.Save(ctx, seed); err != nil {
		return err
	}
	logger.Info("default settings seeded", zap.String("api_base_url", seed.APIBaseURL), zap.Bool("configured", seed.Configured()))
	return nil
}
