package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("TRANSCRIBE_ENGINE", "")
	t.Setenv("TRANSCRIBE_PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Workers.Requests != 4 || cfg.Workers.Chunks != 4 {
		t.Errorf("expected 4/4 workers, got %d/%d", cfg.Workers.Requests, cfg.Workers.Chunks)
	}
	if cfg.ChunkLength() != 60*time.Second {
		t.Errorf("expected 60s chunks, got %s", cfg.ChunkLength())
	}
	if cfg.Engine.Backend != "whisper" || cfg.Whisper.Model != "base" {
		t.Errorf("unexpected engine defaults: %s/%s", cfg.Engine.Backend, cfg.Whisper.Model)
	}
	if cfg.Audio.Decoder != "ffmpeg" || cfg.Audio.SampleRate != 16000 {
		t.Errorf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.BodyLimit() != 500*1024*1024 {
		t.Errorf("unexpected body limit %d", cfg.BodyLimit())
	}
	if cfg.CleanupInterval() != 30*time.Minute || cfg.CleanupMaxAge() != 24*time.Hour {
		t.Errorf("unexpected cleanup window %s/%s", cfg.CleanupInterval(), cfg.CleanupMaxAge())
	}
}

func TestLoadParsesYAML(t *testing.T) {
	t.Setenv("TRANSCRIBE_ENGINE", "")
	t.Setenv("TRANSCRIBE_PORT", "")

	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 8080
whisper:
  model_path: models/ggml-small.bin
  threads: 2
workers:
  requests: 2
  chunks: 8
audio:
  chunk_length_ms: 30000
  decoder: wav
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
	if cfg.Whisper.Model != "" {
		t.Errorf("model should stay empty when model_path is set, got %q", cfg.Whisper.Model)
	}
	if cfg.Workers.Requests != 2 || cfg.Workers.Chunks != 8 {
		t.Errorf("unexpected workers %+v", cfg.Workers)
	}
	if cfg.ChunkLength() != 30*time.Second {
		t.Errorf("expected 30s chunks, got %s", cfg.ChunkLength())
	}
	if cfg.Audio.Decoder != "wav" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected audio/logging: %+v %+v", cfg.Audio, cfg.Logging)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRANSCRIBE_ENGINE", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRANSCRIBE_PORT", "9090")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Backend != "openai" || cfg.OpenAI.APIKey != "sk-test" || cfg.Server.Port != 9090 {
		t.Fatalf("environment not applied: backend=%s key=%s port=%d", cfg.Engine.Backend, cfg.OpenAI.APIKey, cfg.Server.Port)
	}

	t.Setenv("TRANSCRIBE_PORT", "ninety")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Fatal("expected error for non-numeric TRANSCRIBE_PORT")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	if _, ok := os.LookupEnv("TRANSCRIBE_PORT"); ok {
		t.Skip("TRANSCRIBE_PORT already set in environment")
	}
	t.Setenv("TRANSCRIBE_ENGINE", "")
	t.Cleanup(func() { os.Unsetenv("TRANSCRIBE_PORT") })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TRANSCRIBE_PORT=6001\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 6001 {
		t.Fatalf("expected port from .env, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"unknown backend", func(c *Config) { c.Engine.Backend = "deepgram" }, "backend"},
		{"openai without key", func(c *Config) { c.Engine.Backend = "openai"; c.OpenAI.APIKey = "" }, "api_key"},
		{"zero chunk workers", func(c *Config) { c.Workers.Chunks = -1 }, "workers.chunks"},
		{"zero request workers", func(c *Config) { c.Workers.Requests = -2 }, "workers.requests"},
		{"negative chunk length", func(c *Config) { c.Audio.ChunkLengthMS = -5 }, "chunk_length_ms"},
		{"unknown decoder", func(c *Config) { c.Audio.Decoder = "gstreamer" }, "decoder"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
