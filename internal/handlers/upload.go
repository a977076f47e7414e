package handlers

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// formField is the multipart field carrying the audio file
const formField = "file"

// UploadHandler handles file uploads
type UploadHandler struct {
	store  *storage.TempStore
	pool   Submitter
	logger *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store *storage.TempStore, pool Submitter, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		store:  store,
		pool:   pool,
		logger: logger,
	}
}

// Handle transcribes the uploaded file and responds with the transcript and
// its stats. The request blocks until every chunk has been transcribed.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := uploadedFile(c)
	if err != nil {
		return c.Status(statusFor(err)).JSON(errorResponse(err))
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read upload"})
	}
	defer src.Close()

	handle, err := h.store.Save(file.Filename, src)
	if err != nil {
		h.logger.Error("Failed to save uploaded file", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file"})
	}

	h.logger.Info("Upload received",
		slog.String("job_id", handle.ID),
		slog.String("filename", file.Filename),
		slog.String("size", humanize.Bytes(uint64(handle.Size))),
	)

	result, err := h.pool.Submit(queue.NewJob(types.SourceUpload, handle))
	if err != nil {
		return c.Status(statusFor(err)).JSON(errorResponse(err))
	}
	return c.JSON(result)
}

// uploadedFile extracts the audio part. A part sent with an empty filename
// is parsed as a plain value, so its presence there means the client
// submitted the field without choosing a file.
func uploadedFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMissingInput, err)
	}
	if files := form.File[formField]; len(files) > 0 {
		if strings.TrimSpace(files[0].Filename) == "" {
			return nil, types.ErrEmptyFilename
		}
		return files[0], nil
	}
	if _, ok := form.Value[formField]; ok {
		return nil, types.ErrEmptyFilename
	}
	return nil, types.ErrMissingInput
}
