package settings

// Option 为下拉选项。
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Providers 为可选的 AI 服务商。
var Providers = []Option{
	{"openai", "OpenAI (GPT-4, GPT-3.5)"},
	{"anthropic", "Anthropic (Claude)"},
	{"ollama", "Ollama (Local)"},
	{"custom", "Custom API"},
}

// Tones 为可选的写作语气。
var Tones = []Option{
	{"professional", "Professional"},
	{"casual", "Casual"},
	{"friendly", "Friendly"},
	{"formal", "Formal"},
	{"conversational", "Conversational"},
	{"authoritative", "Authoritative"},
	{"enthusiastic", "Enthusiastic"},
	{"informative", "Informative"},
	{"persuasive", "Persuasive"},
}

// Languages 为支持的输出语言。
var Languages = []Option{
	{"en", "English"},
	{"fa", "فارسی (Persian)"},
	{"ar", "العربية (Arabic)"},
	{"de", "Deutsch (German)"},
	{"es", "Español (Spanish)"},
	{"fr", "Français (French)"},
	{"it", "Italiano (Italian)"},
	{"ja", "日本語 (Japanese)"},
	{"ko", "한국어 (Korean)"},
	{"zh", "中文 (Chinese)"},
}

// Lengths 为文章篇幅。
var Lengths = []Option{
	{"short", "Short (300-500 words)"},
	{"medium", "Medium (800-1200 words)"},
	{"long", "Long (1500-2500 words)"},
}

// Catalog 汇总全部选项，供界面渲染。
type Catalog struct {
	Providers []Option `json:"providers"`
	Tones     []Option `json:"tones"`
	Languages []Option `json:"languages"`
	Lengths   []Option `json:"lengths"`
}

// Options 返回全部选项。
func Options() Catalog {
	return Catalog{Providers: Providers, Tones: Tones, Languages: Languages, Lengths: Lengths}
}

func hasKey(options []Option, key string) bool {
	for _, opt := range options {
		if opt.Key == key {
			return true
		}
	}
	return false
}
