package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server looks for its config file
const DefaultPath = "config/config.yaml"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Engine struct {
		Backend string `yaml:"backend"` // "whisper" or "openai"
	} `yaml:"engine"`

	Whisper struct {
		Model     string `yaml:"model"`
		ModelPath string `yaml:"model_path"`
		Command   string `yaml:"command"`
		Language  string `yaml:"language"`
		Threads   int    `yaml:"threads"`
		Device    string `yaml:"device"`
	} `yaml:"whisper"`

	OpenAI struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
	} `yaml:"openai"`

	Workers struct {
		Requests int `yaml:"requests"` // whole-file pool
		Chunks   int `yaml:"chunks"`   // per-request chunk pool
		Queue    int `yaml:"queue"`
	} `yaml:"workers"`

	Audio struct {
		ChunkLengthMS int    `yaml:"chunk_length_ms"`
		SampleRate    int    `yaml:"sample_rate"`
		Decoder       string `yaml:"decoder"` // "ffmpeg" or "wav"
		FFmpegBinary  string `yaml:"ffmpeg_binary"`
	} `yaml:"audio"`

	Storage struct {
		TempDir  string `yaml:"temp_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text", "json" or "auto"
	} `yaml:"logging"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. A missing file is not an error.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Engine.Backend == "" {
		c.Engine.Backend = "whisper"
	}
	if c.Whisper.Model == "" && c.Whisper.ModelPath == "" {
		c.Whisper.Model = "base"
	}
	if c.Whisper.Command == "" {
		c.Whisper.Command = "python"
	}
	if c.Workers.Requests == 0 {
		c.Workers.Requests = 4
	}
	if c.Workers.Chunks == 0 {
		c.Workers.Chunks = 4
	}
	if c.Workers.Queue == 0 {
		c.Workers.Queue = 100
	}
	if c.Audio.ChunkLengthMS == 0 {
		c.Audio.ChunkLengthMS = 60000
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Decoder == "" {
		c.Audio.Decoder = "ffmpeg"
	}
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = "ffmpeg"
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "transcripts.db"
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.Limits.MaxFileSizeMB == 0 {
		c.Limits.MaxFileSizeMB = 500
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
}

// applyEnv lets the environment override secrets and deployment knobs
func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("TRANSCRIBE_ENGINE"); v != "" {
		c.Engine.Backend = v
	}
	if v := os.Getenv("TRANSCRIBE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSCRIBE_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Engine.Backend) {
	case "whisper":
	case "openai":
		if c.OpenAI.APIKey == "" {
			return errors.New("openai backend requires openai.api_key or OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("invalid engine backend %q (want whisper or openai)", c.Engine.Backend)
	}

	if c.Workers.Requests < 1 {
		return fmt.Errorf("workers.requests must be positive, got %d", c.Workers.Requests)
	}
	if c.Workers.Chunks < 1 {
		return fmt.Errorf("workers.chunks must be positive, got %d", c.Workers.Chunks)
	}
	if c.Workers.Queue < 0 {
		return fmt.Errorf("workers.queue must not be negative, got %d", c.Workers.Queue)
	}
	if c.Audio.ChunkLengthMS < 1 {
		return fmt.Errorf("audio.chunk_length_ms must be positive, got %d", c.Audio.ChunkLengthMS)
	}
	if c.Audio.SampleRate < 1 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}

	switch strings.ToLower(c.Audio.Decoder) {
	case "ffmpeg", "wav":
	default:
		return fmt.Errorf("invalid audio decoder %q (want ffmpeg or wav)", c.Audio.Decoder)
	}

	if c.Cleanup.IntervalMinutes < 1 || c.Cleanup.MaxAgeHours < 1 {
		return errors.New("cleanup interval and max age must be positive")
	}
	if c.Limits.MaxFileSizeMB < 1 {
		return fmt.Errorf("limits.max_file_size_mb must be positive, got %d", c.Limits.MaxFileSizeMB)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "auto":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	return nil
}

// ChunkLength returns the configured maximum chunk duration
func (c *Config) ChunkLength() time.Duration {
	return time.Duration(c.Audio.ChunkLengthMS) * time.Millisecond
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BodyLimit returns the upload limit in bytes
func (c *Config) BodyLimit() int {
	return c.Limits.MaxFileSizeMB * 1024 * 1024
}

// CleanupInterval returns the time between temp directory sweeps
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.IntervalMinutes) * time.Minute
}

// CleanupMaxAge returns how old an orphaned upload must be to be removed
func (c *Config) CleanupMaxAge() time.Duration {
	return time.Duration(c.Cleanup.MaxAgeHours) * time.Hour
}
