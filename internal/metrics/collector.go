// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 客户端指标收集器
type Collector struct {
	// 请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadBytes     prometheus.Counter

	// 进度流指标
	streamEvents  *prometheus.CounterVec
	activeStreams prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 reg；reg 为 nil 时使用默认注册表
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of generation API requests",
		},
		[]string{"operation", "status"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Generation API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	c.uploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total bytes sent by image uploads",
		},
	)

	c.streamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Progress stream events by kind (progress, complete, error)",
		},
		[]string{"kind"},
	)

	c.activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of open progress streams",
		},
	)

	for _, col := range []prometheus.Collector{
		c.requestsTotal, c.requestDuration, c.uploadBytes, c.streamEvents, c.activeStreams,
	} {
		if err := reg.Register(col); err != nil {
			c.logger.Warn("metric registration failed", zap.Error(err))
		}
	}

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 请求指标记录
// =============================================================================

// RecordRequest 记录一次 API 调用；status 为 ok 或错误码
func (c *Collector) RecordRequest(operation, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(operation, status).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordUpload 记录上传字节数
func (c *Collector) RecordUpload(bytes int64) {
	if c == nil {
		return
	}
	c.uploadBytes.Add(float64(bytes))
}

// =============================================================================
// 📡 进度流指标记录
// =============================================================================

// StreamOpened 记录打开的进度流
func (c *Collector) StreamOpened() {
	if c == nil {
		return
	}
	c.activeStreams.Inc()
}

// StreamClosed 记录关闭的进度流
func (c *Collector) StreamClosed() {
	if c == nil {
		return
	}
	c.activeStreams.Dec()
}

// RecordStreamEvent 记录进度流事件
func (c *Collector) RecordStreamEvent(kind string) {
	if c == nil {
		return
	}
	c.streamEvents.WithLabelValues(kind).Inc()
}
