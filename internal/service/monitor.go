package service

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "xiaoyuanbao"

// Monitor 监控服务，计数同时写入 Prometheus 与内存快照
type Monitor struct {
	Registry *prometheus.Registry

	ordersCreated    prometheus.Counter
	orderTransitions *prometheus.CounterVec
	cacheRequests    *prometheus.CounterVec
	infraErrors      *prometheus.CounterVec
	eventsConsumed   *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec

	mu sync.RWMutex

	// 错误统计
	infraErrCount map[string]int64

	// 业务统计
	OrdersCreated     int64
	TransitionsOK     int64
	TransitionsFailed int64
	CacheHits         int64
	CacheMisses       int64
	EventsProcessed   int64
	EventsFailed      int64

	// 时间统计
	LastInfraError time.Time
	LastOrderTime  time.Time
	LastEventTime  time.Time
}

// NewMonitor 创建独立 registry 的监控实例
func NewMonitor() *Monitor {
	m := &Monitor{
		Registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by action and result.",
		}, []string{"action", "result"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_requests_total",
			Help:      "Read-through cache lookups by result.",
		}, []string{"result"}),
		infraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "infra_errors_total",
			Help:      "Infrastructure failures by component.",
		}, []string{"component"}),
		eventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_consumed_total",
			Help:      "Order events handled by the worker by result.",
		}, []string{"result"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		infraErrCount: make(map[string]int64),
	}
	m.Registry.MustRegister(
		m.ordersCreated,
		m.orderTransitions,
		m.cacheRequests,
		m.infraErrors,
		m.eventsConsumed,
		m.requestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

var (
	globalMonitor *Monitor
	monitorOnce   sync.Once
)

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	monitorOnce.Do(func() {
		globalMonitor = NewMonitor()
	})
	return globalMonitor
}

// RecordOrderCreated 记录下单成功
func (m *Monitor) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
	m.LastOrderTime = time.Now()
}

// RecordTransition result 为 ok 或错误码
func (m *Monitor) RecordTransition(action, result string) {
	m.orderTransitions.WithLabelValues(action, result).Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == "ok" {
		m.TransitionsOK++
	} else {
		m.TransitionsFailed++
	}
}

// RecordCache 记录缓存命中/未命中
func (m *Monitor) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.CacheHits++
	} else {
		m.CacheMisses++
	}
}

// RecordInfraError 记录 db/cache/mq 等组件错误
func (m *Monitor) RecordInfraError(component string) {
	m.infraErrors.WithLabelValues(component).Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infraErrCount[component]++
	m.LastInfraError = time.Now()
}

// RecordEvent 记录 worker 处理结果：ok / requeued / dropped
func (m *Monitor) RecordEvent(result string) {
	m.eventsConsumed.WithLabelValues(result).Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == "ok" {
		m.EventsProcessed++
	} else {
		m.EventsFailed++
	}
	m.LastEventTime = time.Now()
}

// ObserveRequest 记录请求耗时
func (m *Monitor) ObserveRequest(method, route, code string, d time.Duration) {
	m.requestLatency.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// Stats 获取统计信息
func (m *Monitor) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hitRate := float64(0)
	if total := m.CacheHits + m.CacheMisses; total > 0 {
		hitRate = float64(m.CacheHits) / float64(total) * 100
	}

	errs := make(map[string]int64, len(m.infraErrCount))
	for k, v := range m.infraErrCount {
		errs[k] = v
	}

	return map[string]interface{}{
		"errors": errs,
		"orders": map[string]interface{}{
			"created":            m.OrdersCreated,
			"transitions_ok":     m.TransitionsOK,
			"transitions_failed": m.TransitionsFailed,
		},
		"cache": map[string]interface{}{
			"hits":     m.CacheHits,
			"misses":   m.CacheMisses,
			"hit_rate": hitRate,
		},
		"events": map[string]interface{}{
			"processed": m.EventsProcessed,
			"failed":    m.EventsFailed,
		},
		"last_events": map[string]interface{}{
			"infra_error": m.LastInfraError,
			"order":       m.LastOrderTime,
			"event":       m.LastEventTime,
		},
	}
}
