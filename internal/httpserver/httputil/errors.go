package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// APIError is an error with a declared HTTP status. Handlers return it and
// ErrorHandler renders it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(status int, msg string) *APIError {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func Authentication(msg string) *APIError {
	return NewAPIError(fiber.StatusUnauthorized, msg)
}

func BadRequest(msg string) *APIError {
	return NewAPIError(fiber.StatusBadRequest, msg)
}

func TooManyRequests(msg string) *APIError {
	return NewAPIError(fiber.StatusTooManyRequests, msg)
}

// WriteError standardizes JSON error responses.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"code":  status,
	})
}

// ErrorHandler renders APIError and fiber.Error with their own status.
// Anything else is logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return WriteError(c, apiErr.Status, apiErr.Message)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return WriteError(c, fiberErr.Code, fiberErr.Message)
	}
	slog.Error("request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("request_id", c.Locals("requestid")),
		slog.String("error", err.Error()),
	)
	return WriteError(c, fiber.StatusInternalServerError, "internal server error")
}
