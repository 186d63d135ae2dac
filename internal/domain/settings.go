package domain

import (
	"strings"
	"time"
)

// Settings 为全局唯一的配置集合，整体以 JSON 形式持久化。
type Settings struct {
	Provider        string       `json:"provider"`
	APIBaseURL      string       `json:"api_base_url"`
	APISecret       string       `json:"api_secret"`
	ModelName       string       `json:"model_name"`
	DefaultTone     string       `json:"default_tone"`
	DefaultLanguage string       `json:"default_language"`
	SEOOptions      SEOOptions   `json:"seo_options"`
	RateLimit       int          `json:"rate_limit"`
	CacheTTL        int          `json:"cache_ttl"`
	BrandProfile    BrandProfile `json:"brand_profile"`
}

// SEOOptions 控制 SEO 相关的附加能力。
type SEOOptions struct {
	EnableSchema         bool `json:"enable_schema"`
	SuggestInternalLinks bool `json:"suggest_internal_links"`
	AutoAltText          bool `json:"auto_alt_text"`
}

// BrandProfile 描述训练得到的品牌写作风格，只能整体替换。
type BrandProfile struct {
	Enabled             bool       `json:"enabled"`
	Tone                string     `json:"tone,omitempty"`
	SentenceLength      string     `json:"sentence_length,omitempty"`
	VocabularyLevel     string     `json:"vocabulary_level,omitempty"`
	ParagraphStructure  string     `json:"paragraph_structure,omitempty"`
	CommonPhrases       []string   `json:"common_phrases,omitempty"`
	WritingStyle        string     `json:"writing_style,omitempty"`
	PunctuationPatterns string     `json:"punctuation_patterns,omitempty"`
	ContentStructure    string     `json:"content_structure,omitempty"`
	PromptTemplate      string     `json:"prompt_template,omitempty"`
	TrainedAt           *time.Time `json:"trained_at,omitempty"`
}

// DefaultSettings 返回首次安装时的默认配置。
func DefaultSettings() Settings {
	return Settings{
		Provider:        "openai",
		APIBaseURL:      "http://localhost:8000",
		ModelName:       "gpt-4o-mini",
		DefaultTone:     "professional",
		DefaultLanguage: "en",
		SEOOptions: SEOOptions{
			EnableSchema:         true,
			SuggestInternalLinks: true,
		},
		RateLimit: 60,
		CacheTTL:  600,
	}
}

// Configured 表示后端地址与密钥均已填写。
func (s Settings) Configured() bool {
	return strings.TrimSpace(s.APIBaseURL) != "" && strings.TrimSpace(s.APISecret) != ""
}
