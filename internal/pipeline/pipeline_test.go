package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codebuildervaibhav/chunked-transcription/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcription/internal/config"
	"github.com/codebuildervaibhav/chunked-transcription/internal/metrics"
	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

func TestNewRejectsUnknownParts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Audio.Decoder = "mp3-native"
	if _, err := New(cfg, nil, nil, logger); err == nil || !strings.Contains(err.Error(), "decoder") {
		t.Fatalf("expected decoder error, got %v", err)
	}

	cfg = config.Default()
	cfg.Engine.Backend = "openai"
	cfg.OpenAI.APIKey = ""
	if _, err := New(cfg, nil, nil, logger); err == nil || !strings.Contains(err.Error(), "openai engine") {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestPipelineWithOpenAIBackend(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"text":"%s"}`, strings.TrimSuffix(header.Filename, ".wav"))
	}))
	defer srv.Close()

	store, err := storage.NewTempStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Engine.Backend = "openai"
	cfg.OpenAI.APIKey = "test-key"
	cfg.OpenAI.BaseURL = srv.URL + "/v1"
	cfg.Audio.Decoder = "wav"
	cfg.Audio.ChunkLengthMS = 100
	cfg.Workers.Requests = 1
	cfg.Storage.TempDir = store.Dir()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	pool, err := New(cfg, nil, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	// 250ms at 1 kHz splits into 100, 100 and 50 ms chunks.
	wav, err := audio.EncodeWAV(make([]int16, 250), 1000)
	if err != nil {
		t.Fatal(err)
	}
	handle, err := store.Save("clip.wav", bytes.NewReader(wav))
	if err != nil {
		t.Fatal(err)
	}

	result, err := pool.Submit(queue.NewJob(types.SourceCLI, handle))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Text != "chunk_000 chunk_001 chunk_002" {
		t.Fatalf("unexpected transcript %q", result.Text)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 API calls, got %d", calls.Load())
	}
	if got := testutil.CollectAndCount(m.ChunkTranscription); got != 1 {
		t.Fatalf("expected one success series, got %d", got)
	}
}
