package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结算结果标签
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeDeclined  = "declined"
	OutcomeTimeout   = "timeout"
	OutcomeFailure   = "failure"
	OutcomeNoPayment = "no_card"
)

var (
	// Registry 应用指标注册表
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digibuy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digibuy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digibuy",
			Subsystem: "checkout",
			Name:      "settlements_total",
			Help:      "Checkout settlements by outcome.",
		},
		[]string{"outcome"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digibuy",
			Subsystem: "checkout",
			Name:      "settlement_duration_seconds",
			Help:      "Duration of checkout settlements.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"outcome"},
	)

	settledAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digibuy",
			Subsystem: "checkout",
			Name:      "settled_amount_total",
			Help:      "Settled amount split by funding source (wallet, card, points, coupon).",
		},
		[]string{"source"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digibuy",
			Subsystem: "notify",
			Name:      "enqueue_failures_total",
			Help:      "Settlement notifications that could not be enqueued.",
		},
		[]string{"driver"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		settlements,
		settlementDuration,
		settledAmount,
		notificationFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler 暴露指标的 HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware 记录 HTTP 请求指标，path 使用路由模板避免标签爆炸
func GinMiddleware(skipPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipPath != "" && c.Request.URL.Path == skipPath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordSettlement 记录一次结算结果
func RecordSettlement(outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	settlements.WithLabelValues(outcome).Inc()
	settlementDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddSettledAmount 累加按资金来源拆分的结算金额
func AddSettledAmount(source string, amount float64) {
	if amount <= 0 {
		return
	}
	settledAmount.WithLabelValues(source).Add(amount)
}

// RecordNotificationFailure 记录通知投递失败
func RecordNotificationFailure(driver string) {
	notificationFailures.WithLabelValues(driver).Inc()
}
