package backend

import (
	"strings"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
)

// 后端端点路径。
const (
	EndpointContentGenerate = "/api/content/generate"
	EndpointProductGenerate = "/api/product/generate"
	EndpointImageAnalyze    = "/api/image/analyze"
	EndpointSEOOptimize     = "/api/seo/optimize"
	EndpointBrandTrain      = "/api/brand/train"
	EndpointHealth          = "/api/health"
)

// 按顺序匹配，先命中者生效。
var endpointTypes = []struct {
	fragment string
	logType  domain.LogType
}{
	{"/content", domain.LogTypeContent},
	{"/product", domain.LogTypeProduct},
	{"/image", domain.LogTypeImage},
	{"/seo", domain.LogTypeSEO},
	{"/brand", domain.LogTypeBrand},
}

// LogTypeForEndpoint 由端点路径推导日志类型，未命中返回 other。
func LogTypeForEndpoint(endpoint string) domain.LogType {
	for _, item := range endpointTypes {
		if strings.Contains(endpoint, item.fragment) {
			return item.logType
		}
	}
	return domain.LogTypeOther
}

// JoinURL 拼接基础地址与端点，保证二者之间恰好一个斜杠。
func JoinURL(baseURL, endpoint string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}
