package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_transitions_total",
			Help: "Lead status transition attempts by outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	subscriptionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
	)

	subscriptionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions deactivated at end of period",
		},
	)

	ingestedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingested_rows_total",
			Help: "Rows processed by ingestion by entity kind and result",
		},
		[]string{"kind", "result"},
	)

	orphanedReferences = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orphaned_references",
			Help: "Unresolved references seen in the latest snapshot",
		},
	)
)

// Transition outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// RecordRequest records one served HTTP request
func RecordRequest(method, path, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func RecordTransition(from, to, outcome string) {
	leadTransitions.WithLabelValues(from, to, outcome).Inc()
}

func RecordSubscriptionCreated() {
	subscriptionsCreated.Inc()
}

func RecordSubscriptionsExpired(n int) {
	subscriptionsExpired.Add(float64(n))
}

func RecordIngestedRow(kind string, ok bool) {
	result := "imported"
	if !ok {
		result = "rejected"
	}
	ingestedRows.WithLabelValues(kind, result).Inc()
}

func SetOrphanedReferences(n int) {
	orphanedReferences.Set(float64(n))
}
