package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
)

// Engine converts one audio chunk to text. Implementations must be safe
// for concurrent use; a single instance is shared by every request.
type Engine interface {
	Transcribe(ctx context.Context, chunk *audio.Chunk) (string, error)
}

// EngineFunc adapts a plain function to the Engine interface
type EngineFunc func(ctx context.Context, chunk *audio.Chunk) (string, error)

// Transcribe calls f
func (f EngineFunc) Transcribe(ctx context.Context, chunk *audio.Chunk) (string, error) {
	return f(ctx, chunk)
}

// Engine backends
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
)

// NewEngine builds the process-wide engine for the named backend
func NewEngine(backend string, whisperCfg WhisperConfig, openaiCfg OpenAIConfig, logger *slog.Logger) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendWhisper:
		return NewWhisperTranscriber(whisperCfg, logger)
	case BackendOpenAI:
		return NewOpenAITranscriber(openaiCfg)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", backend)
	}
}
