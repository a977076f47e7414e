package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// DefaultWorkers is the default size of the per-request chunk pool
const DefaultWorkers = 4

// Fragment is the text of one chunk, tagged with the chunk's position
type Fragment struct {
	Index int
	Text  string
}

// Observer receives per-chunk timings. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveChunk(elapsed time.Duration, err error)
}

// Coordinator fans chunks out to an engine on a bounded pool and joins the
// fragments back in chunk order
type Coordinator struct {
	engine   Engine
	workers  int
	logger   *slog.Logger
	observer Observer
}

// NewCoordinator creates a coordinator. Non-positive workers falls back to
// DefaultWorkers; observer may be nil.
func NewCoordinator(engine Engine, workers int, logger *slog.Logger, observer Observer) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		engine:   engine,
		workers:  workers,
		logger:   logger,
		observer: observer,
	}
}

// Workers returns the pool size
func (c *Coordinator) Workers() int {
	return c.workers
}

// Transcribe runs the engine over every chunk and waits for all of them.
// Each chunk is released as soon as its own call returns. Siblings of a
// failed chunk still run to completion, but any failure fails the whole
// call and no partial transcript is returned. onStage, when non-nil, is
// told about the DISPATCHING, AWAITING and JOINING transitions.
func (c *Coordinator) Transcribe(ctx context.Context, chunks []*audio.Chunk, onStage func(status string)) (*types.TranscriptionResult, error) {
	stage := func(status string) {
		if onStage != nil {
			onStage(status)
		}
	}

	stage(types.StatusDispatching)
	start := time.Now()

	fragments := make([]Fragment, len(chunks))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, chunk := range chunks {
		g.Go(func() (err error) {
			defer chunk.Release()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: chunk %d: engine panic: %v", types.ErrTranscription, chunk.Index, r)
				}
			}()

			callStart := time.Now()
			text, err := c.engine.Transcribe(ctx, chunk)
			elapsed := time.Since(callStart)
			if c.observer != nil {
				c.observer.ObserveChunk(elapsed, err)
			}
			if err != nil {
				c.logger.Warn("Chunk transcription failed",
					slog.Int("chunk", chunk.Index),
					slog.String("error", err.Error()),
				)
				return fmt.Errorf("%w: chunk %d: %w", types.ErrTranscription, chunk.Index, err)
			}

			// Each goroutine writes only its own slot.
			fragments[i] = Fragment{Index: chunk.Index, Text: text}
			return nil
		})
	}

	stage(types.StatusAwaiting)
	err := g.Wait()
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	stage(types.StatusJoining)
	text := Join(fragments)

	return &types.TranscriptionResult{
		Text:       text,
		ChunkCount: len(chunks),
		Stats: types.Stats{
			TotalProcessingTime: elapsed.Seconds(),
			WordsPerSecond:      Throughput(text, elapsed),
		},
		ProcessedAt: time.Now(),
	}, nil
}

// Join concatenates fragments in slice order with a single space
func Join(fragments []Fragment) string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return strings.Join(texts, " ")
}

// Throughput is the transcript's character count per second of processing,
// rounded to two decimals. It counts characters, not words.
func Throughput(text string, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return math.Round(float64(utf8.RuneCountInString(text))/secs*100) / 100
}
