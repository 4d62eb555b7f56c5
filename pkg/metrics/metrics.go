// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_created_total",
			Help: "Conversations inserted by StartOrGet",
		},
	)

	// ConversationKeyConflicts counts inserts that lost the unique-key race.
	ConversationKeyConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_key_conflicts_total",
			Help: "Conversation inserts resolved by re-fetching the winner",
		},
	)

	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_appended_total",
			Help: "Messages stored",
		},
	)

	ReportsFiled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_filed_total",
			Help: "Reports filed, by reason",
		},
		[]string{"reason"},
	)

	ReportsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_resolved_total",
			Help: "Reports resolved, by action",
		},
		[]string{"action"},
	)

	// NotificationFailures counts deliveries that failed and were dropped.
	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"channel"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
