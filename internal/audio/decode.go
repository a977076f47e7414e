package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// DefaultSampleRate is the rate speech models expect
const DefaultSampleRate = 16000

// Decoder turns an audio file of any supported container into PCM
type Decoder interface {
	Decode(ctx context.Context, path string) (PCM, error)
}

// FFmpegDecoder converts audio to mono PCM-16 by piping ffmpeg's raw output
type FFmpegDecoder struct {
	Binary     string
	SampleRate int
}

// NewFFmpegDecoder creates a decoder. Empty binary means "ffmpeg" on PATH.
func NewFFmpegDecoder(binary string, sampleRate int) *FFmpegDecoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegDecoder{Binary: binary, SampleRate: sampleRate}
}

// Decode runs ffmpeg against path and reads the samples from stdout
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (PCM, error) {
	cmd := exec.CommandContext(ctx, d.Binary,
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vn",
		"-ac", "1", // mono
		"-ar", strconv.Itoa(d.SampleRate),
		"-f", "s16le", // raw 16-bit PCM, no container
		"-c:a", "pcm_s16le",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return PCM{}, fmt.Errorf("%w: ffmpeg failed: %v: %s", types.ErrDecode, err, strings.TrimSpace(stderr.String()))
	}

	samples := samplesFromBytes(stdout.Bytes())
	if len(samples) == 0 {
		return PCM{}, fmt.Errorf("%w: ffmpeg produced no samples for %s", types.ErrDecode, path)
	}
	return PCM{Samples: samples, SampleRate: d.SampleRate}, nil
}

// WAVDecoder reads 16-bit mono PCM WAV files without external tools
type WAVDecoder struct{}

// Decode reads and parses the file at path
func (WAVDecoder) Decode(_ context.Context, path string) (PCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	pcm, err := DecodeWAV(data)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	return pcm, nil
}

// NewDecoder returns the decoder named by kind ("ffmpeg" or "wav")
func NewDecoder(kind, ffmpegBinary string, sampleRate int) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "ffmpeg":
		return NewFFmpegDecoder(ffmpegBinary, sampleRate), nil
	case "wav":
		return WAVDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", kind)
	}
}
