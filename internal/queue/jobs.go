package queue

import (
	"sync"
	"time"

	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// Job represents one whole-file transcription request. The job owns its
// input handle from creation until it reaches a terminal state.
type Job struct {
	ID         string
	SourceType string
	Input      *storage.Handle
	CreatedAt  time.Time

	mu     sync.Mutex
	status string
	result *types.TranscriptionResult
	err    error
	done   chan struct{}
}

// NewJob creates a job in the RECEIVED state. The job ID is the input
// handle's ID so logs, temp files and history rows line up.
func NewJob(sourceType string, input *storage.Handle) *Job {
	return &Job{
		ID:         input.ID,
		SourceType: sourceType,
		Input:      input,
		CreatedAt:  time.Now(),
		status:     types.StatusReceived,
		done:       make(chan struct{}),
	}
}

// Status returns the current lifecycle state
func (j *Job) Status() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if types.IsTerminal(j.status) {
		return
	}
	j.status = status
}

// finish moves the job into its terminal state and wakes waiters. Only the
// first call has any effect.
func (j *Job) finish(result *types.TranscriptionResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if types.IsTerminal(j.status) {
		return
	}
	if err != nil {
		j.status = types.StatusFailed
		j.err = err
	} else {
		j.status = types.StatusCompleted
		j.result = result
	}
	close(j.done)
}

// Done is closed once the job is COMPLETED or FAILED
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (j *Job) Result() (*types.TranscriptionResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}
