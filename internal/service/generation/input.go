package generation

// ContentInput 为文章生成参数。PostID 仅用于活动日志关联。
type ContentInput struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
	Tone     string   `json:"tone"`
	Length   string   `json:"length"`
	Language string   `json:"language"`
	Audience string   `json:"audience"`
	Sections []string `json:"sections"`
	PostID   int64    `json:"post_id"`
}

// ProductInput 为商品文案生成参数。
type ProductInput struct {
	ProductID  int64          `json:"product_id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Attributes map[string]any `json:"attributes"`
	Features   []string       `json:"features"`
	USP        []string       `json:"usp"`
	Price      *float64       `json:"price"`
	Keywords   []string       `json:"keywords"`
	Tone       string         `json:"tone"`
	Language   string         `json:"language"`
}

// ImageInput 为图片分析参数，ImageURL 与 AttachmentID 至少提供一个。
type ImageInput struct {
	ImageURL     string `json:"image_url"`
	AttachmentID int64  `json:"attachment_id"`
	Language     string `json:"language"`
	Context      string `json:"context"`
}

// SEOInput 为 SEO 优化参数。
type SEOInput struct {
	ContentHTML  string   `json:"content_html"`
	CurrentTitle string   `json:"current_title"`
	Keywords     []string `json:"keywords"`
	Language     string   `json:"language"`
	PostType     string   `json:"post_type"`
	PostID       int64    `json:"post_id"`
}

// BrandSample 为品牌训练样本。
type BrandSample struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// BrandTrainInput 为品牌训练参数。
type BrandTrainInput struct {
	Samples  []BrandSample `json:"samples"`
	Language string        `json:"language"`
}
