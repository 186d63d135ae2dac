package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 记录后端调用的次数、耗时与令牌消耗。nil 时不记录。
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

// NewMetrics 在给定注册表上创建指标。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contentcraft_backend_requests_total",
			Help: "Total number of generation backend requests by type and outcome.",
		}, []string{"type", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contentcraft_backend_request_duration_seconds",
			Help:    "Histogram of generation backend request durations.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		}, []string{"type"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contentcraft_backend_tokens_used_total",
			Help: "Total number of tokens reported by the generation backend.",
		}, []string{"type"}),
	}
}

func (m *Metrics) observe(logType, status string, elapsed time.Duration, tokens int64) {
	if m == nil {
		return
	}
	m.requests.With(prometheus.Labels{"type": logType, "status": status}).Inc()
	if elapsed > 0 {
		m.duration.With(prometheus.Labels{"type": logType}).Observe(elapsed.Seconds())
	}
	if tokens > 0 {
		m.tokens.With(prometheus.Labels{"type": logType}).Add(float64(tokens))
	}
}
