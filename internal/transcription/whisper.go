package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
)

// WhisperConfig configures the local Whisper CLI engine
type WhisperConfig struct {
	Model     string
	ModelPath string
	Command   string
	Language  string
	Device    string
	Threads   int
	TempDir   string
}

// WhisperTranscriber wraps Python's OpenAI Whisper for transcription
type WhisperTranscriber struct {
	modelName  string
	whisperCmd string
	language   string
	device     string
	threads    int
	tempDir    string
	logger     *slog.Logger
}

var whisperModels = []string{"tiny", "base", "small", "medium", "large"}

// resolveModelName picks the Whisper model size. An explicit model wins,
// otherwise the size is inferred from the model path (e.g.
// "ggml-small.bin" -> "small"). Defaults to "base".
func resolveModelName(model, modelPath string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	lower := strings.ToLower(filepath.Base(modelPath))
	for _, name := range whisperModels {
		if strings.Contains(lower, name) {
			return name
		}
	}
	return "base"
}

// NewWhisperTranscriber creates a transcriber using Python Whisper
func NewWhisperTranscriber(cfg WhisperConfig, logger *slog.Logger) (*WhisperTranscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}

	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		command = "python"
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create whisper temp directory: %w", err)
	}

	wt := &WhisperTranscriber{
		modelName:  resolveModelName(cfg.Model, cfg.ModelPath),
		whisperCmd: command,
		language:   cfg.Language,
		device:     cfg.Device,
		threads:    cfg.Threads,
		tempDir:    tempDir,
		logger:     logger,
	}

	logger.Info("Initializing Python Whisper",
		slog.String("model", wt.modelName),
		slog.String("command", command+" -m whisper"),
	)
	return wt, nil
}

// Transcribe writes the chunk to a private work directory, runs Whisper on
// it and returns the trimmed text. Every call gets its own directory, so
// concurrent calls never collide.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, chunk *audio.Chunk) (string, error) {
	if chunk.Released() {
		return "", errors.New("chunk already released")
	}

	workDir, err := os.MkdirTemp(wt.tempDir, "whisper-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, fmt.Sprintf("chunk_%03d.wav", chunk.Index))
	if err := os.WriteFile(audioPath, chunk.WAV(), 0644); err != nil {
		return "", fmt.Errorf("failed to write chunk: %w", err)
	}

	output, err := exec.CommandContext(ctx, wt.whisperCmd, wt.args(audioPath, workDir)...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("whisper failed: %w\nOutput: %s", err, strings.TrimSpace(string(output)))
	}

	jsonPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(audioPath), ".wav")+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("failed to read whisper output: %w", err)
	}

	text, err := parseWhisperOutput(data)
	if err != nil {
		return "", err
	}

	wt.logger.Debug("Chunk transcribed",
		slog.Int("chunk", chunk.Index),
		slog.Duration("duration", chunk.Duration),
		slog.Int("chars", len(text)),
	)
	return text, nil
}

func (wt *WhisperTranscriber) args(audioPath, outputDir string) []string {
	args := []string{"-m", "whisper",
		audioPath,
		"--model", wt.modelName,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--fp16", "False", // CPU compatibility
	}
	if wt.language != "" {
		args = append(args, "--language", wt.language)
	}
	if wt.device != "" {
		args = append(args, "--device", wt.device)
	}
	if wt.threads > 0 {
		args = append(args, "--threads", strconv.Itoa(wt.threads))
	}
	return args
}

// whisperOutput matches Python Whisper's JSON output format
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperOutput(data []byte) (string, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to parse whisper JSON: %w", err)
	}
	if text := strings.TrimSpace(out.Text); text != "" {
		return text, nil
	}

	// Older releases leave "text" empty and only fill segments.
	parts := make([]string, 0, len(out.Segments))
	for _, seg := range out.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
