// Package metrics holds the Prometheus collectors for ingestion, embedding and search.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the engine reports.
type Metrics struct {
	ingestJobs        *prometheus.CounterVec
	ingestDuration    prometheus.Histogram
	embeddingRequests *prometheus.CounterVec
	embeddingRetries  prometheus.Counter
	searchDuration    *prometheus.HistogramVec
	reconcileRemoved  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliophage",
			Name:      "ingest_jobs_total",
			Help:      "Ingestion jobs by terminal state.",
		}, []string{"state"}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bibliophage",
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of ingestion jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		embeddingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliophage",
			Name:      "embedding_requests_total",
			Help:      "Embedding provider batch calls by outcome.",
		}, []string{"outcome"}),
		embeddingRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bibliophage",
			Name:      "embedding_retries_total",
			Help:      "Embedding provider calls retried after a transient failure.",
		}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bibliophage",
			Name:      "search_duration_seconds",
			Help:      "Search latency by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "mode"}),
		reconcileRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliophage",
			Name:      "reconcile_removed_total",
			Help:      "Records or vector sets removed by the reconciliation sweep.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ingestJobs,
		m.ingestDuration,
		m.embeddingRequests,
		m.embeddingRetries,
		m.searchDuration,
		m.reconcileRemoved,
	)
	return m
}

// IngestFinished records a job reaching a terminal state.
func (m *Metrics) IngestFinished(state string, took time.Duration) {
	if m == nil {
		return
	}
	m.ingestJobs.WithLabelValues(state).Inc()
	m.ingestDuration.Observe(took.Seconds())
}

// EmbeddingCall records one provider batch call.
func (m *Metrics) EmbeddingCall(outcome string) {
	if m == nil {
		return
	}
	m.embeddingRequests.WithLabelValues(outcome).Inc()
}

// EmbeddingRetry records a retried provider call.
func (m *Metrics) EmbeddingRetry() {
	if m == nil {
		return
	}
	m.embeddingRetries.Inc()
}

// SearchObserved records a finished search.
func (m *Metrics) SearchObserved(kind, mode string, took time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.WithLabelValues(kind, mode).Observe(took.Seconds())
}

// ReconcileRemoved records n removals for reason.
func (m *Metrics) ReconcileRemoved(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.reconcileRemoved.WithLabelValues(reason).Add(float64(n))
}
