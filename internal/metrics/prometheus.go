package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the transcription service
type Metrics struct {
	// Request metrics
	Requests          *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ProcessingTime    prometheus.Histogram
	ActiveRequests    prometheus.Gauge
	UploadSize        prometheus.Histogram
	TemporaryReleases prometheus.Counter

	// Chunk metrics
	ChunksGenerated    prometheus.Counter
	ChunkTranscription *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them on reg. Passing a
// fresh registry keeps instances independent (tests create several).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transcribe_requests_total",
			Help: "Total number of transcription requests by outcome",
		}, []string{"source", "status"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_request_duration_seconds",
			Help:    "Wall-clock time from dequeue to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7 minutes
		}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_processing_time_seconds",
			Help:    "Dispatch-and-collect time of completed requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ActiveRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "transcribe_active_requests",
			Help: "Requests currently being processed",
		}),
		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_upload_size_bytes",
			Help:    "Size of uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 12), // 64KB to ~128MB
		}),
		TemporaryReleases: factory.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_temp_files_released_total",
			Help: "Uploaded files removed after their request finished",
		}),
		ChunksGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_chunks_generated_total",
			Help: "Total number of audio chunks produced",
		}),
		ChunkTranscription: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcribe_chunk_duration_seconds",
			Help:    "Time spent in the engine per chunk",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"result"}),
	}
}

// NewRegistry returns a registry preloaded with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ObserveChunk records one engine call
func (m *Metrics) ObserveChunk(elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ChunkTranscription.WithLabelValues(result).Observe(elapsed.Seconds())
}

// RecordChunks adds n generated chunks
func (m *Metrics) RecordChunks(n int) {
	m.ChunksGenerated.Add(float64(n))
}

// RequestStarted marks a request as in flight
func (m *Metrics) RequestStarted(sizeBytes int64) {
	m.ActiveRequests.Inc()
	m.UploadSize.Observe(float64(sizeBytes))
}

// RequestFinished records a request reaching a terminal state
func (m *Metrics) RequestFinished(source, status string, elapsed time.Duration, processingSeconds float64) {
	m.ActiveRequests.Dec()
	m.Requests.WithLabelValues(source, status).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
	if processingSeconds > 0 {
		m.ProcessingTime.Observe(processingSeconds)
	}
}

// RecordRelease counts a released upload
func (m *Metrics) RecordRelease() {
	m.TemporaryReleases.Inc()
}
