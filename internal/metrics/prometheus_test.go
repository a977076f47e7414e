package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordRequestLifecycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RequestStarted(2048)
	if got := testutil.ToFloat64(m.ActiveRequests); got != 1 {
		t.Fatalf("expected 1 active request, got %v", got)
	}

	m.RecordChunks(3)
	m.ObserveChunk(time.Second, nil)
	m.ObserveChunk(time.Second, errors.New("boom"))
	m.RecordRelease()
	m.RequestFinished("upload", "FAILED", 2*time.Second, 0)

	if got := testutil.ToFloat64(m.ActiveRequests); got != 0 {
		t.Fatalf("expected 0 active requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.ChunksGenerated); got != 3 {
		t.Fatalf("expected 3 chunks, got %v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("upload", "FAILED")); got != 1 {
		t.Fatalf("expected 1 failed upload, got %v", got)
	}
	if got := testutil.ToFloat64(m.TemporaryReleases); got != 1 {
		t.Fatalf("expected 1 release, got %v", got)
	}
	if got := testutil.CollectAndCount(m.ChunkTranscription); got != 2 {
		t.Fatalf("expected success and failure series, got %d", got)
	}
}

func TestNewMetricsOnSeparateRegistries(t *testing.T) {
	NewMetrics(NewRegistry())
	NewMetrics(NewRegistry())
}
