package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 里程碑状态迁移次数
	MilestoneTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_transitions_total",
			Help: "Total number of milestone status transitions",
		},
		[]string{"to"},
	)

	// 放款金额
	EscrowReleasedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_released_amount_total",
			Help: "Total amount of escrow funds released to creators",
		},
	)

	// 认筹次数
	BackingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backings_created_total",
			Help: "Total number of backings",
		},
		[]string{"status"}, // confirmed, failed
	)

	// 项目状态迁移次数
	ProjectTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_transitions_total",
			Help: "Total number of project status transitions",
		},
		[]string{"to"},
	)

	// 事件投递
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_dispatched_total",
			Help: "Total number of outbox events handed to the broker",
		},
		[]string{"status"}, // sent, failed
	)
)

// RecordHTTPRequest 记录 HTTP 请求延迟
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Middleware gin 请求耗时中间件，path 取路由模板避免基数爆炸
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// Handler /metrics 端点
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
