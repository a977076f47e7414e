package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
)

// History is the read side of transcript history
type History interface {
	GetTranscript(jobID string) (storage.TranscriptRecord, error)
	ListTranscripts(limit int) ([]storage.TranscriptRecord, error)
}

// TranscriptHandler serves transcript history
type TranscriptHandler struct {
	db     History
	logger *slog.Logger
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(db History, logger *slog.Logger) *TranscriptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptHandler{db: db, logger: logger}
}

// List returns the most recent transcripts, without their text
func (h *TranscriptHandler) List(c *fiber.Ctx) error {
	transcripts, err := h.db.ListTranscripts(c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("Failed to list transcripts", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(transcripts)
}

// Get returns one transcript record
func (h *TranscriptHandler) Get(c *fiber.Ctx) error {
	rec, err := h.db.GetTranscript(c.Params("id"))
	if err != nil {
		return h.lookupFailed(c, err)
	}
	return c.JSON(rec)
}

// Text returns the transcript as plain text
func (h *TranscriptHandler) Text(c *fiber.Ctx) error {
	rec, err := h.db.GetTranscript(c.Params("id"))
	if err != nil {
		return h.lookupFailed(c, err)
	}
	c.Type("txt", "utf-8")
	return c.SendString(rec.Transcript)
}

func (h *TranscriptHandler) lookupFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transcript not found"})
	}
	h.logger.Error("Failed to load transcript", slog.String("error", err.Error()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
