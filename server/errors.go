package server

import (
	"context"
	"errors"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/canvas"
	"github.com/gofiber/fiber/v3"
)

// statusOf maps an error to its HTTP status code.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errUnknownSession):
		return fiber.StatusNotFound
	case errors.Is(err, errTooManySessions):
		return fiber.StatusTooManyRequests
	case errors.Is(err, pdfannot.ErrInvalidFileType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, pdfannot.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return fiber.StatusRequestTimeout
	case errors.Is(err, pdfannot.ErrLoaderUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, pdfannot.ErrParseFailure):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, pdfannot.ErrLoadInProgress),
		errors.Is(err, pdfannot.ErrNoDocument),
		errors.Is(err, pdfannot.ErrNotReady),
		errors.Is(err, pdfannot.ErrNoPendingText),
		errors.Is(err, canvas.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, pdfannot.ErrPageOutOfRange):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// badRequest wraps err as a 400 unless it already maps to a specific status.
func badRequest(err error) error {
	if statusOf(err) != fiber.StatusInternalServerError {
		return err
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
