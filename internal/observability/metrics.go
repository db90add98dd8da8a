package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	workflowDecisions   *prometheus.CounterVec
	workflowRejections  *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	streamClientsActive prometheus.Gauge
	dashboardCacheHits  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laras_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_http_errors_total",
			Help: "Total number of error responses.",
		}, []string{"method", "route", "status"})

		workflowDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_workflow_decisions_total",
			Help: "Terminal workflow decisions by entity and resulting status.",
		}, []string{"entity", "status"})

		workflowRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_workflow_rejections_total",
			Help: "Workflow operations rejected before any state change, by reason.",
		}, []string{"entity", "reason"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_notifications_published_total",
			Help: "Notifications published, by type.",
		}, []string{"type"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laras_stream_clients_active",
			Help: "Currently connected streaming subscribers.",
		})

		dashboardCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laras_dashboard_cache_requests_total",
			Help: "Dashboard cache lookups, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			workflowDecisions, workflowRejections,
			notificationsTotal, streamClientsActive, dashboardCacheHits,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// WorkflowDecisions exposes the counter for terminal workflow decisions.
func WorkflowDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowDecisions
}

// WorkflowRejections exposes the counter for rejected workflow operations.
func WorkflowRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowRejections
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// StreamClientsActive exposes the gauge of connected stream subscribers.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}

// DashboardCacheHits exposes the counter for dashboard cache lookups.
func DashboardCacheHits() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheHits
}
