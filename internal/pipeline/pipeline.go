// Package pipeline assembles the decoder, engine, chunk coordinator and
// request pool from configuration. The server and the CLI share it.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcription/internal/config"
	"github.com/codebuildervaibhav/chunked-transcription/internal/metrics"
	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/transcription"
)

// New builds an unstarted request pool. history and m may be nil; the
// engine is created once and shared by every request.
func New(cfg *config.Config, history queue.Recorder, m *metrics.Metrics, logger *slog.Logger) (*queue.WorkerPool, error) {
	decoder, err := audio.NewDecoder(cfg.Audio.Decoder, cfg.Audio.FFmpegBinary, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize decoder: %w", err)
	}

	engine, err := transcription.NewEngine(cfg.Engine.Backend,
		transcription.WhisperConfig{
			Model:     cfg.Whisper.Model,
			ModelPath: cfg.Whisper.ModelPath,
			Command:   cfg.Whisper.Command,
			Language:  cfg.Whisper.Language,
			Device:    cfg.Whisper.Device,
			Threads:   cfg.Whisper.Threads,
			TempDir:   cfg.Storage.TempDir,
		},
		transcription.OpenAIConfig{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.OpenAI.Language,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s engine: %w", cfg.Engine.Backend, err)
	}

	var observer transcription.Observer
	if m != nil {
		observer = m
	}
	coordinator := transcription.NewCoordinator(engine, cfg.Workers.Chunks, logger, observer)

	return queue.NewWorkerPool(
		queue.PoolConfig{
			Workers:     cfg.Workers.Requests,
			QueueSize:   cfg.Workers.Queue,
			ChunkLength: cfg.ChunkLength(),
		},
		decoder,
		coordinator,
		history,
		m,
		logger,
	), nil
}
