package utils

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount   prometheus.Counter
	errorCount     prometheus.Counter
	operationTimes *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	voteActions    *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec

	systemStartTime time.Time
}

// NewMetricsCollector registers the forum metrics on a private registry so that
// several collectors can coexist in one process (tests spin up many).
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,
		requestCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "forum_requests_total",
			Help: "Requests handled by the engine.",
		}),
		errorCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "forum_errors_total",
			Help: "Requests that ended in an error.",
		}),
		operationTimes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_operation_duration_seconds",
			Help:    "Latency of actor operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		voteActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_vote_actions_total",
			Help: "Vote ledger outcomes by target kind and action.",
		}, []string{"kind", "action"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_listing_cache_lookups_total",
			Help: "External listing cache lookups by result.",
		}, []string{"result"}),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requestCount.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errorCount.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationTimes.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	mc.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	mc.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordVote(kind, action string) {
	mc.voteActions.WithLabelValues(kind, action).Inc()
}

func (mc *MetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		mc.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	mc.cacheLookups.WithLabelValues("miss").Inc()
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}
