package handlers

import (
	"bytes"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

const (
	endOfStream     = "END"
	defaultStreamAs = "stream_recording.webm"
	maxNameLength   = 200
)

// streamSession accumulates one websocket upload. A positive limit caps
// the buffered audio in bytes.
type streamSession struct {
	filename string
	buffer   bytes.Buffer
	limit    int
}

// frame consumes one message and reports whether the client signalled the
// end of the stream. It fails once the audio would exceed the limit.
func (s *streamSession) frame(messageType int, message []byte) (bool, error) {
	switch messageType {
	case websocket.TextMessage:
		msg := string(message)
		if msg == endOfStream {
			return true, nil
		}
		if len(msg) > 0 && len(msg) < maxNameLength {
			s.filename = msg
		}
	case websocket.BinaryMessage:
		if s.limit > 0 && s.buffer.Len()+len(message) > s.limit {
			s.buffer.Reset()
			return false, errStreamTooLarge
		}
		s.buffer.Write(message)
	}
	return false, nil
}

func (s *streamSession) name() string {
	if s.filename == "" {
		return defaultStreamAs
	}
	return s.filename
}

// StreamHandler handles WebSocket audio uploads. The client sends an
// optional text frame with the filename, binary frames with audio and a
// final END text frame; the server answers with one JSON frame.
type StreamHandler struct {
	store    *storage.TempStore
	pool     Submitter
	maxBytes int
	logger   *slog.Logger
}

// NewStreamHandler creates a new stream handler. maxBytes caps the audio a
// single connection may send; zero means no cap.
func NewStreamHandler(store *storage.TempStore, pool Submitter, maxBytes int, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		store:    store,
		pool:     pool,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Handle processes WebSocket connections
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	session := streamSession{limit: h.maxBytes}
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			h.logger.Warn("WebSocket closed before END", slog.String("error", err.Error()))
			return
		}
		done, err := session.frame(messageType, message)
		if err != nil {
			h.logger.Warn("Stream rejected", slog.Int("limit_bytes", h.maxBytes), slog.String("error", err.Error()))
			if werr := c.WriteJSON(errorResponse(err)); werr != nil {
				h.logger.Warn("WebSocket write failed", slog.String("error", werr.Error()))
			}
			return
		}
		if done {
			break
		}
	}

	status, body := h.process(&session)
	if err := c.WriteJSON(body); err != nil {
		h.logger.Warn("WebSocket write failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
}

// process runs the buffered audio through the pool and returns the status
// and body an HTTP upload of the same data would get
func (h *StreamHandler) process(session *streamSession) (int, any) {
	if session.buffer.Len() == 0 {
		return statusFor(types.ErrMissingInput), errorResponse(types.ErrMissingInput)
	}

	handle, err := h.store.Save(session.name(), &session.buffer)
	if err != nil {
		h.logger.Error("Failed to save stream buffer", slog.String("error", err.Error()))
		return fiber.StatusInternalServerError, fiber.Map{"error": "Failed to save stream"}
	}
	h.logger.Info("Stream received",
		slog.String("job_id", handle.ID),
		slog.String("filename", session.name()),
		slog.Int64("bytes", handle.Size),
	)

	result, err := h.pool.Submit(queue.NewJob(types.SourceStream, handle))
	if err != nil {
		return statusFor(err), errorResponse(err)
	}
	return fiber.StatusOK, result
}
