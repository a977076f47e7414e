package types

import (
	"errors"
	"time"
)

// Job status constants, in the order a request moves through them
const (
	StatusReceived    = "RECEIVED"
	StatusChunking    = "CHUNKING"
	StatusDispatching = "DISPATCHING"
	StatusAwaiting    = "AWAITING"
	StatusJoining     = "JOINING"
	StatusCompleted   = "COMPLETED"
	StatusFailed      = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceStream = "stream"
	SourceCLI    = "cli"
)

// Error kinds surfaced to callers. Lower layers wrap these with %w.
var (
	ErrMissingInput  = errors.New("no file in request")
	ErrEmptyFilename = errors.New("empty filename")
	ErrDecode        = errors.New("audio decode failed")
	ErrTranscription = errors.New("transcription failed")
	ErrPoolStopped   = errors.New("worker pool stopped")
)

// IsTerminal reports whether status ends the request lifecycle
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Stats is the statistics block returned with every transcript.
// WordsPerSecond is a character rate: transcript runes divided by
// TotalProcessingTime.
type Stats struct {
	TotalProcessingTime float64 `json:"total_processing_time"`
	WordsPerSecond      float64 `json:"words_per_second"`
	FileSizeInBytes     int64   `json:"file_size_in_bytes"`
}

// TranscriptionResult represents the joined transcript of one request
type TranscriptionResult struct {
	JobID       string    `json:"-"`
	Text        string    `json:"transcription"`
	Stats       Stats     `json:"stats"`
	ChunkCount  int       `json:"-"`
	ProcessedAt time.Time `json:"-"`
}
