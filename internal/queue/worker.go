package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcription/internal/metrics"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/transcription"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// Recorder persists finished jobs. *storage.MetadataDB implements it.
type Recorder interface {
	SaveTranscript(rec storage.TranscriptRecord) error
}

// PoolConfig sizes the request pool
type PoolConfig struct {
	Workers     int
	QueueSize   int
	ChunkLength time.Duration
}

// WorkerPool runs whole-file requests on a fixed number of workers. Each
// worker drives one job at a time through decode, chunk, transcribe and
// join; the chunk fan-out is the coordinator's own pool.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	chunkLength time.Duration
	decoder     audio.Decoder
	coordinator *transcription.Coordinator
	history     Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewWorkerPool creates a new worker pool. history and m may be nil.
func NewWorkerPool(
	cfg PoolConfig,
	decoder audio.Decoder,
	coordinator *transcription.Coordinator,
	history Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.ChunkLength <= 0 {
		cfg.ChunkLength = audio.DefaultChunkLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, cfg.QueueSize),
		workerCount: cfg.Workers,
		chunkLength: cfg.ChunkLength,
		decoder:     decoder,
		coordinator: coordinator,
		history:     history,
		metrics:     m,
		logger:      logger,
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	wp.logger.Info("Starting worker pool",
		slog.Int("request_workers", wp.workerCount),
		slog.Int("chunk_workers", wp.coordinator.Workers()),
		slog.Duration("chunk_length", wp.chunkLength),
	)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop stops accepting jobs and waits for queued ones to finish
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.logger.Info("Worker pool stopped")
}

// EnqueueJob adds a job to the queue without waiting for it. If the pool
// is stopped the job fails immediately and its input is released.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		wp.release(job)
		job.finish(nil, types.ErrPoolStopped)
		return
	}
	wp.jobQueue <- job
	wp.logger.Info("Job enqueued",
		slog.String("job_id", job.ID),
		slog.String("source", job.SourceType),
		slog.String("filename", job.Input.Filename),
	)
}

// Submit enqueues job and blocks until it reaches a terminal state.
// Once accepted a job always runs to completion; there is no cancellation.
func (wp *WorkerPool) Submit(job *Job) (*types.TranscriptionResult, error) {
	wp.EnqueueJob(job)
	<-job.Done()
	return job.Result()
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	wp.logger.Debug("Worker started", slog.Int("worker", id))

	for job := range wp.jobQueue {
		wp.runJob(id, job)
	}
}

func (wp *WorkerPool) runJob(workerID int, job *Job) {
	start := time.Now()
	if wp.metrics != nil {
		wp.metrics.RequestStarted(job.Input.Size)
	}

	var (
		result *types.TranscriptionResult
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				wp.logger.Error("PANIC processing job",
					slog.Int("worker", workerID),
					slog.String("job_id", job.ID),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				result, err = nil, fmt.Errorf("worker panic: %v", r)
			}
		}()
		result, err = wp.processJob(workerID, job)
	}()

	wp.complete(workerID, job, result, err, time.Since(start))
}

// processJob handles the complete transcription pipeline. The input is
// released on every return path, including panics.
func (wp *WorkerPool) processJob(workerID int, job *Job) (*types.TranscriptionResult, error) {
	defer wp.release(job)

	ctx := context.Background()
	wp.logger.Info("Processing job",
		slog.Int("worker", workerID),
		slog.String("job_id", job.ID),
		slog.String("size", humanize.Bytes(uint64(job.Input.Size))),
	)

	// Step 1: Decode and chunk
	job.setStatus(types.StatusChunking)
	pcm, err := wp.decoder.Decode(ctx, job.Input.Path)
	if err != nil {
		return nil, err
	}
	chunks, err := audio.Split(pcm, wp.chunkLength)
	if err != nil {
		return nil, err
	}
	if wp.metrics != nil {
		wp.metrics.RecordChunks(len(chunks))
	}
	wp.logger.Debug("Audio chunked",
		slog.String("job_id", job.ID),
		slog.Duration("duration", pcm.Duration()),
		slog.Int("chunks", len(chunks)),
	)

	// Step 2: Transcribe chunks in parallel and join
	result, err := wp.coordinator.Transcribe(ctx, chunks, job.setStatus)
	if err != nil {
		return nil, err
	}

	result.JobID = job.ID
	result.Stats.FileSizeInBytes = job.Input.Size
	return result, nil
}

// release removes the job's uploaded file
func (wp *WorkerPool) release(job *Job) {
	if err := job.Input.Release(); err != nil {
		wp.logger.Warn("Failed to cleanup temp file",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if wp.metrics != nil {
		wp.metrics.RecordRelease()
	}
}

func (wp *WorkerPool) complete(workerID int, job *Job, result *types.TranscriptionResult, err error, elapsed time.Duration) {
	rec := storage.TranscriptRecord{
		JobID:           job.ID,
		Filename:        job.Input.Filename,
		SourceType:      job.SourceType,
		FileSizeInBytes: job.Input.Size,
		CreatedAt:       time.Now(),
	}

	var processing float64
	if err != nil {
		rec.Status = types.StatusFailed
		rec.Error = err.Error()
		wp.logger.Error("Job failed",
			slog.Int("worker", workerID),
			slog.String("job_id", job.ID),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	} else {
		rec.Status = types.StatusCompleted
		rec.Transcript = result.Text
		rec.ChunkCount = result.ChunkCount
		rec.TotalProcessingTime = result.Stats.TotalProcessingTime
		rec.WordsPerSecond = result.Stats.WordsPerSecond
		processing = result.Stats.TotalProcessingTime
		wp.logger.Info("Job completed",
			slog.Int("worker", workerID),
			slog.String("job_id", job.ID),
			slog.Int("chunks", result.ChunkCount),
			slog.Float64("processing_seconds", result.Stats.TotalProcessingTime),
			slog.Float64("words_per_second", result.Stats.WordsPerSecond),
		)
	}

	if wp.history != nil {
		if herr := wp.history.SaveTranscript(rec); herr != nil {
			wp.logger.Warn("Database save failed", slog.String("job_id", job.ID), slog.String("error", herr.Error()))
		}
	}
	if wp.metrics != nil {
		wp.metrics.RequestFinished(job.SourceType, rec.Status, elapsed, processing)
	}

	job.finish(result, err)
}
