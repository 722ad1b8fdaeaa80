package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IngestFinished("PERSISTED", 2*time.Second)
	m.IngestFinished("FAILED", time.Second)
	m.IngestFinished("PERSISTED", time.Second)
	m.EmbeddingCall("ok")
	m.EmbeddingRetry()
	m.ReconcileRemoved("orphan_vectors", 3)
	m.ReconcileRemoved("stale_ingest", 0)

	if got := testutil.ToFloat64(m.ingestJobs.WithLabelValues("PERSISTED")); got != 2 {
		t.Errorf("ingest_jobs_total{PERSISTED} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.embeddingRetries); got != 1 {
		t.Errorf("embedding_retries_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reconcileRemoved.WithLabelValues("orphan_vectors")); got != 3 {
		t.Errorf("reconcile_removed_total = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(m.reconcileRemoved); got != 1 {
		t.Errorf("reconcile_removed_total series = %d, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.IngestFinished("PERSISTED", time.Second)
	m.EmbeddingCall("ok")
	m.EmbeddingRetry()
	m.SearchObserved("pdf", "semantic", time.Millisecond)
	m.ReconcileRemoved("orphan_vectors", 1)
}
