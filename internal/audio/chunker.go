package audio

import (
	"fmt"
	"time"

	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// DefaultChunkLength is the maximum duration of a single chunk
const DefaultChunkLength = 60 * time.Second

// PCM is a decoded mono 16-bit sample stream
type PCM struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the total length of the stream
func (p PCM) Duration() time.Duration {
	return samplesToDuration(len(p.Samples), p.SampleRate)
}

// Chunk is a contiguous sub-range of a PCM stream, encoded as its own WAV
// file. Chunks never share backing memory with each other or with the
// source stream.
type Chunk struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
	wav      []byte
}

// NewChunk wraps an already encoded audio buffer as a chunk
func NewChunk(index int, start, duration time.Duration, wav []byte) *Chunk {
	return &Chunk{Index: index, Start: start, Duration: duration, wav: wav}
}

// WAV returns the encoded chunk, or nil once the chunk has been released
func (c *Chunk) WAV() []byte {
	return c.wav
}

// Size returns the encoded size in bytes
func (c *Chunk) Size() int {
	return len(c.wav)
}

// Release drops the chunk's backing buffer
func (c *Chunk) Release() {
	c.wav = nil
}

// Released reports whether Release has been called
func (c *Chunk) Released() bool {
	return c.wav == nil
}

func (c *Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s+%s", c.Index, c.Start, c.Duration)
}

// Split cuts pcm into consecutive chunks of at most maxLength each. The
// chunks cover the stream with no gaps or overlaps; only the last one may
// be shorter than maxLength.
func Split(pcm PCM, maxLength time.Duration) ([]*Chunk, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("chunk length must be positive, got %s", maxLength)
	}
	if pcm.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", types.ErrDecode, pcm.SampleRate)
	}
	total := len(pcm.Samples)
	if total == 0 {
		return nil, fmt.Errorf("%w: no audio samples", types.ErrDecode)
	}

	step := int(int64(pcm.SampleRate) * int64(maxLength) / int64(time.Second))
	if step < 1 {
		return nil, fmt.Errorf("chunk length %s is shorter than one sample at %d Hz", maxLength, pcm.SampleRate)
	}

	chunks := make([]*Chunk, 0, (total+step-1)/step)
	for i, offset := 0, 0; offset < total; i, offset = i+1, offset+step {
		end := min(offset+step, total)

		// EncodeWAV writes into a fresh buffer, so the chunk owns its bytes.
		wav, err := EncodeWAV(pcm.Samples[offset:end], pcm.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to encode chunk %d: %w", i, err)
		}

		start := samplesToDuration(offset, pcm.SampleRate)
		chunks = append(chunks, &Chunk{
			Index:    i,
			Start:    start,
			Duration: samplesToDuration(end, pcm.SampleRate) - start,
			wav:      wav,
		})
	}
	return chunks, nil
}

func samplesToDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}
