package backend

import "fmt"

// 失败类别。远端返回的错误码原样透传，缺省为 CodeUnknown。
const (
	KindNotConfigured    = "not_configured"
	KindTransport        = "transport_error"
	KindParse            = "json_parse_error"
	KindGenerationFailed = "generation_failed"
	KindAPIError         = "api_error"
	CodeUnknown          = "UNKNOWN_ERROR"
)

const (
	msgNotConfigured    = "ContentCraft AI is not configured. Please set API credentials in settings."
	msgParseFailed      = "Failed to parse API response."
	msgParseLog         = "JSON parse error"
	msgRequestFailed    = "API request failed."
	msgGenerationFailed = "Generation failed."
	msgUnknownCode      = "An unknown error occurred."
)

// Failure 为客户端返回的可预期失败，Status 为后端 HTTP 状态码（无响应时为 0）。
type Failure struct {
	Kind    string
	Message string
	Status  int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

var codeMessages = map[string]string{
	"INVALID_REQUEST":     "Invalid request parameters.",
	"UNAUTHORIZED":        "Authentication failed. Check your API secret.",
	"RATE_LIMIT_EXCEEDED": "Rate limit exceeded. Please try again later.",
	"GENERATION_FAILED":   "Content generation failed. Please try again.",
	"PROVIDER_ERROR":      "AI provider error. Check provider status.",
	"TIMEOUT":             "Request timeout. Try with shorter content.",
	"INSUFFICIENT_TOKENS": "Insufficient tokens in your account.",
	"CONNECTION_FAILED":   "Cannot connect to FastAPI backend.",
}

// MessageForCode 返回错误码对应的固定提示语。
func MessageForCode(code string) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return msgUnknownCode
}
