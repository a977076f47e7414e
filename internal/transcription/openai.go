package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
)

// OpenAIConfig configures the hosted transcription engine
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// OpenAITranscriber sends chunks to the OpenAI audio transcription API
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAITranscriber creates an engine backed by the OpenAI API
func NewOpenAITranscriber(cfg OpenAIConfig) (*OpenAITranscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &OpenAITranscriber{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: cfg.Language,
	}, nil
}

// Transcribe uploads the chunk's WAV bytes and returns the trimmed text
func (t *OpenAITranscriber) Transcribe(ctx context.Context, chunk *audio.Chunk) (string, error) {
	if chunk.Released() {
		return "", errors.New("chunk already released")
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: fmt.Sprintf("chunk_%03d.wav", chunk.Index),
		Reader:   bytes.NewReader(chunk.WAV()),
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
