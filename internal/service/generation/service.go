// Package generation 将入站请求整理为后端请求体，并处理缓存与品牌档案。
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/backend"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/cache"
	"go.uber.org/zap"
)

var defaultSections = []string{"title", "excerpt", "body", "meta"}

// Backend 为后端客户端的调用面。
type Backend interface {
	Post(ctx context.Context, endpoint string, body map[string]any, opts ...backend.CallOption) (*backend.Response, error)
}

// SettingsSource 提供默认值并持久化品牌档案。
type SettingsSource interface {
	Load(ctx context.Context) (domain.Settings, error)
	ReplaceBrandProfile(ctx context.Context, profile domain.BrandProfile) error
}

// ResponseCache 缓存成功响应。
type ResponseCache interface {
	Enabled() bool
	Get(ctx context.Context, key string) (map[string]any, bool, error)
	Set(ctx context.Context, key string, value map[string]any, ttl time.Duration) error
}

// Options 配置服务。
type Options struct {
	BrandTrainTimeout time.Duration
}

// Service 组织生成类请求。
type Service struct {
	backend    Backend
	settings   SettingsSource
	cache      ResponseCache
	publisher  event.Publisher
	logger     *zap.Logger
	brandTrain time.Duration
	nowFn      func() time.Time
}

// NewService 创建生成服务。cache 可为 nil。
func NewService(b Backend, settings SettingsSource, responseCache ResponseCache, publisher event.Publisher, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BrandTrainTimeout <= 0 {
		opts.BrandTrainTimeout = 90 * time.Second
	}
	return &Service{
		backend:    b,
		settings:   settings,
		cache:      responseCache,
		publisher:  publisher,
		logger:     logger,
		brandTrain: opts.BrandTrainTimeout,
		nowFn:      time.Now,
	}
}

// WithClock 允许注入自定义时间函数，便于测试。
func (s *Service) WithClock(now func() time.Time) {
	if now != nil {
		s.nowFn = now
	}
}

// GenerateContent 生成文章。
func (s *Service) GenerateContent(ctx context.Context, input ContentInput) (*backend.Response, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	current, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"topic":    topic,
		"keywords": cleanList(input.Keywords),
		"tone":     firstNonEmpty(input.Tone, current.DefaultTone),
		"length":   firstNonEmpty(input.Length, "medium"),
		"language": firstNonEmpty(input.Language, current.DefaultLanguage),
		"sections": cleanList(input.Sections),
	}
	if len(body["sections"].([]string)) == 0 {
		body["sections"] = append([]string(nil), defaultSections...)
	}
	setIfPresent(body, "audience", input.Audience)
	mergeBrandProfile(body, current)

	return s.post(ctx, current, backend.EndpointContentGenerate, body, backend.WithTargetID(input.PostID))
}

// GenerateProduct 生成商品文案。
func (s *Service) GenerateProduct(ctx context.Context, input ProductInput) (*backend.Response, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	current, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	attributes := input.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	body := map[string]any{
		"name":       name,
		"attributes": attributes,
		"features":   cleanList(input.Features),
		"usp":        cleanList(input.USP),
		"keywords":   cleanList(input.Keywords),
		"tone":       firstNonEmpty(input.Tone, current.DefaultTone),
		"language":   firstNonEmpty(input.Language, current.DefaultLanguage),
	}
	if input.ProductID > 0 {
		body["product_id"] = input.ProductID
	}
	setIfPresent(body, "category", input.Category)
	if input.Price != nil {
		body["price"] = *input.Price
	}
	mergeBrandProfile(body, current)

	return s.post(ctx, current, backend.EndpointProductGenerate, body, backend.WithTargetID(input.ProductID))
}

// AnalyzeImage 分析图片；提供附件编号且返回替代文本时广播 AltTextGenerated。
func (s *Service) AnalyzeImage(ctx context.Context, input ImageInput) (*backend.Response, error) {
	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" && input.AttachmentID <= 0 {
		return nil, fmt.Errorf("%w: image_url or attachment_id is required", ErrInvalidInput)
	}
	current, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"language": firstNonEmpty(input.Language, current.DefaultLanguage),
		"context":  firstNonEmpty(input.Context, "product"),
	}
	setIfPresent(body, "image_url", imageURL)
	if input.AttachmentID > 0 {
		body["attachment_id"] = input.AttachmentID
	}

	resp, err := s.post(ctx, current, backend.EndpointImageAnalyze, body, backend.WithTargetID(input.AttachmentID))
	if err != nil {
		return nil, err
	}
	if input.AttachmentID > 0 {
		if altText, ok := resp.Data()["alt_text"].(string); ok && strings.TrimSpace(altText) != "" {
			s.publish(event.AltTextGenerated, event.AltTextPayload{AttachmentID: input.AttachmentID, AltText: strings.TrimSpace(altText)})
		}
	}
	return resp, nil
}

// OptimizeSEO 优化 SEO 元数据。
func (s *Service) OptimizeSEO(ctx context.Context, input SEOInput) (*backend.Response, error) {
	if strings.TrimSpace(input.ContentHTML) == "" {
		return nil, fmt.Errorf("%w: content_html is required", ErrInvalidInput)
	}
	current, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"content_html": input.ContentHTML,
		"keywords":     cleanList(input.Keywords),
		"language":     firstNonEmpty(input.Language, current.DefaultLanguage),
		"post_type":    firstNonEmpty(input.PostType, "post"),
	}
	setIfPresent(body, "current_title", input.CurrentTitle)

	return s.post(ctx, current, backend.EndpointSEOOptimize, body, backend.WithTargetID(input.PostID))
}

// TrainBrand 训练品牌风格，成功后整体替换已保存的品牌档案。训练结果不缓存。
func (s *Service) TrainBrand(ctx context.Context, input BrandTrainInput) (*backend.Response, error) {
	samples := make([]BrandSample, 0, len(input.Samples))
	for _, sample := range input.Samples {
		if strings.TrimSpace(sample.Title) == "" && strings.TrimSpace(sample.Body) == "" {
			continue
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: samples are required", ErrInvalidInput)
	}
	current, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"samples":  samples,
		"language": firstNonEmpty(input.Language, current.DefaultLanguage),
	}
	resp, err := s.backend.Post(ctx, backend.EndpointBrandTrain, body, backend.WithTimeout(s.brandTrain))
	if err != nil {
		return nil, err
	}

	profile, ok, err := s.brandProfileFrom(resp)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := s.settings.ReplaceBrandProfile(ctx, profile); err != nil {
			return nil, err
		}
		s.logger.Info("brand profile trained", zap.Int("samples", len(samples)))
		s.publish(event.BrandTrained, profile)
	}
	return resp, nil
}

func (s *Service) brandProfileFrom(resp *backend.Response) (domain.BrandProfile, bool, error) {
	data := resp.Data()
	raw, ok := data["brand_profile"].(map[string]any)
	if !ok {
		return domain.BrandProfile{}, false, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return domain.BrandProfile{}, false, fmt.Errorf("encode brand profile: %w", err)
	}
	var profile domain.BrandProfile
	if err := json.Unmarshal(encoded, &profile); err != nil {
		return domain.BrandProfile{}, false, fmt.Errorf("decode brand profile: %w", err)
	}
	trainedAt := s.nowFn().UTC()
	profile.Enabled = true
	profile.TrainedAt = &trainedAt
	if template, ok := data["prompt_template"].(string); ok {
		profile.PromptTemplate = template
	}
	return profile, true, nil
}

// post 在缓存可用且 cache_ttl > 0 时优先读取缓存，命中时不调用后端。
func (s *Service) post(ctx context.Context, current domain.Settings, endpoint string, body map[string]any, opts ...backend.CallOption) (*backend.Response, error) {
	ttl := time.Duration(current.CacheTTL) * time.Second
	useCache := s.cache != nil && s.cache.Enabled() && ttl > 0

	var key string
	if useCache {
		k, err := cache.ResponseKey(endpoint, body)
		if err != nil {
			return nil, err
		}
		key = k
		cached, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("read response cache failed", zap.String("endpoint", endpoint), zap.Error(err))
		} else if hit {
			s.logger.Debug("response cache hit", zap.String("endpoint", endpoint))
			return &backend.Response{Body: cached}, nil
		}
	}

	resp, err := s.backend.Post(ctx, endpoint, body, opts...)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.Set(ctx, key, resp.Body, ttl); err != nil {
			s.logger.Warn("write response cache failed", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *Service) publish(name event.Name, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event.Event{Name: name, Payload: payload})
}

func mergeBrandProfile(body map[string]any, current domain.Settings) {
	if current.BrandProfile.Enabled {
		body["brand_profile"] = current.BrandProfile
	}
}

func setIfPresent(body map[string]any, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		body[key] = trimmed
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// cleanList 去除空白项，始终返回非 nil 切片以编码为 []。
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
