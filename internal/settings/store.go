// Package settings 管理全局唯一的配置集合。
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"go.uber.org/zap"
)

// OptionKey 为配置在存储中的键。
const OptionKey = "contentcraft_settings"

// ErrInvalidSetting 表示提交的配置值不合法。
var ErrInvalidSetting = errors.New("invalid setting")

// Patch 描述部分更新，nil 字段保持不变。品牌档案不可通过 Patch 修改。
type Patch struct {
	Provider        *string            `json:"provider"`
	APIBaseURL      *string            `json:"api_base_url"`
	APISecret       *string            `json:"api_secret"`
	ModelName       *string            `json:"model_name"`
	DefaultTone     *string            `json:"default_tone"`
	DefaultLanguage *string            `json:"default_language"`
	SEOOptions      *domain.SEOOptions `json:"seo_options"`
	RateLimit       *int               `json:"rate_limit"`
	CacheTTL        *int               `json:"cache_ttl"`
}

// Store 读写配置。读改写操作在进程内串行执行。
type Store struct {
	repo      domain.SettingsRepository
	publisher event.Publisher
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewStore 创建配置存储。
func NewStore(repo domain.SettingsRepository, publisher event.Publisher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, publisher: publisher, logger: logger}
}

// Load 读取当前配置，未保存过时返回默认值，缺失字段以默认值补齐。
func (s *Store) Load(ctx context.Context) (domain.Settings, error) {
	current := domain.DefaultSettings()
	raw, err := s.repo.Get(ctx, OptionKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return current, nil
		}
		return current, fmt.Errorf("load settings: %w", err)
	}
	if err := json.Unmarshal(raw, &current); err != nil {
		return domain.DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return current, nil
}

// Exists 表示配置是否已写入存储。
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := s.repo.Get(ctx, OptionKey)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Save 整体写入配置并广播 SettingsSaved。
func (s *Store) Save(ctx context.Context, value domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, value)
}

// Update 合并部分更新并保存。与掩码相同的密钥视为未修改。
func (s *Store) Update(ctx context.Context, patch Patch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return current, err
	}
	next, err := applyPatch(current, patch)
	if err != nil {
		return current, err
	}
	if err := s.save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// Credentials 实现 backend.CredentialSource，每次调用读取最新配置。
func (s *Store) Credentials(ctx context.Context) (backend.Credentials, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return backend.Credentials{}, err
	}
	return backend.Credentials{BaseURL: current.APIBaseURL, Secret: current.APISecret}, nil
}

// BrandProfile 返回当前品牌档案。
func (s *Store) BrandProfile(ctx context.Context) (domain.BrandProfile, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return domain.BrandProfile{}, err
	}
	return current.BrandProfile, nil
}

// ReplaceBrandProfile 用 profile 整体替换品牌档案。
func (s *Store) ReplaceBrandProfile(ctx context.Context, profile domain.BrandProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	current.BrandProfile = profile
	return s.save(ctx, current)
}

// DisableBrandProfile 清空品牌档案。
func (s *Store) DisableBrandProfile(ctx context.Context) error {
	return s.ReplaceBrandProfile(ctx, domain.BrandProfile{Enabled: false})
}

func (s *Store) save(ctx context.Context, value domain.Settings) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.repo.Put(ctx, OptionKey, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("settings saved", zap.String("provider", value.Provider), zap.Bool("configured", value.Configured()))
	if s.publisher != nil {
		s.publisher.Publish(event.Event{Name: event.SettingsSaved, Payload: Masked(value)})
	}
	return nil
}

func applyPatch(current domain.Settings, patch Patch) (domain.Settings, error) {
	next := current
	if patch.Provider != nil {
		provider := strings.TrimSpace(*patch.Provider)
		if !hasKey(Providers, provider) {
			return current, fmt.Errorf("%w: provider %q", ErrInvalidSetting, provider)
		}
		next.Provider = provider
	}
	if patch.APIBaseURL != nil {
		raw := strings.TrimSpace(*patch.APIBaseURL)
		if raw != "" {
			parsed, err := url.Parse(raw)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return current, fmt.Errorf("%w: api_base_url must be an http(s) url", ErrInvalidSetting)
			}
		}
		next.APIBaseURL = raw
	}
	if patch.APISecret != nil {
		secret := strings.TrimSpace(*patch.APISecret)
		if secret != MaskSecret(current.APISecret, SecretVisibleChars) || current.APISecret == "" {
			next.APISecret = secret
		}
	}
	if patch.ModelName != nil {
		next.ModelName = strings.TrimSpace(*patch.ModelName)
	}
	if patch.DefaultTone != nil {
		tone := strings.TrimSpace(*patch.DefaultTone)
		if !hasKey(Tones, tone) {
			return current, fmt.Errorf("%w: default_tone %q", ErrInvalidSetting, tone)
		}
		next.DefaultTone = tone
	}
	if patch.DefaultLanguage != nil {
		language := strings.TrimSpace(*patch.DefaultLanguage)
		if !hasKey(Languages, language) {
			return current, fmt.Errorf("%w: default_language %q", ErrInvalidSetting, language)
		}
		next.DefaultLanguage = language
	}
	if patch.SEOOptions != nil {
		next.SEOOptions = *patch.SEOOptions
	}
	if patch.RateLimit != nil {
		if *patch.RateLimit < 0 {
			return current, fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidSetting)
		}
		next.RateLimit = *patch.RateLimit
	}
	if patch.CacheTTL != nil {
		if *patch.CacheTTL < 0 {
			return current, fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidSetting)
		}
		next.CacheTTL = *patch.CacheTTL
	}
	return next, nil
}
