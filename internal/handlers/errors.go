package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// Submitter runs a job to completion. *queue.WorkerPool implements it.
type Submitter interface {
	Submit(job *queue.Job) (*types.TranscriptionResult, error)
}

// Client-facing messages for request validation failures
const (
	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
)

var errStreamTooLarge = errors.New("stream exceeds upload limit")

// statusFor maps a pipeline error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrMissingInput), errors.Is(err, types.ErrEmptyFilename):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrDecode):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrTranscription):
		return fiber.StatusBadGateway
	case errors.Is(err, errStreamTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrPoolStopped):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// errorMessage is the "error" field sent for err
func errorMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrMissingInput):
		return msgNoFilePart
	case errors.Is(err, types.ErrEmptyFilename):
		return msgNoSelectedFile
	default:
		return err.Error()
	}
}

func errorResponse(err error) fiber.Map {
	return fiber.Map{"error": errorMessage(err)}
}
