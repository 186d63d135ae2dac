package domain

import "time"

// LogType 表示一次后端调用所属的业务类别，由端点路径推导。
type LogType string

const (
	LogTypeContent LogType = "content"
	LogTypeProduct LogType = "product"
	LogTypeImage   LogType = "image"
	LogTypeSEO     LogType = "seo"
	LogTypeBrand   LogType = "brand"
	LogTypeOther   LogType = "other"
)

// LogStatus 表示调用结果。
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusFailed  LogStatus = "failed"
)

// LogEntry 记录一次后端调用的结果，写入后不可修改。
type LogEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Type         LogType   `json:"type"`
	TargetID     *int64    `json:"target_id,omitempty"`
	TokensUsed   int64     `json:"tokens_used"`
	LatencyMs    int64     `json:"latency_ms"`
	Status       LogStatus `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogFilter 限定统计范围。UserID 为 0 表示全部用户；From 含，Until 不含。
type LogFilter struct {
	UserID int64
	From   *time.Time
	Until  *time.Time
}

// LogTotals 汇总范围内的调用数量、令牌与平均延迟。
type LogTotals struct {
	TotalGenerations int64   `json:"total_generations"`
	Successful       int64   `json:"successful"`
	Failed           int64   `json:"failed"`
	TotalTokens      int64   `json:"total_tokens"`
	AvgLatencyMs     float64 `json:"avg_latency"`
}

// TypeUsage 按类型聚合的使用情况。
type TypeUsage struct {
	Type         LogType `json:"type"`
	Count        int64   `json:"count"`
	Tokens       int64   `json:"tokens"`
	AvgLatencyMs float64 `json:"avg_latency"`
}
