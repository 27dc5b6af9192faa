package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// Error names carried in the envelope.
const (
	NameBadRequest          = "BadRequest"
	NameNotFound            = "NotFound"
	NameTooManyRequests     = "TooManyRequests"
	NameInternalServerError = "InternalServerError"
)

const internalMessage = "An internal server error occurred"

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// Envelope wraps every response body.
type Envelope struct {
	Success bool       `json:"success"`
	Value   any        `json:"value,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// OK writes a successful envelope.
func OK(c *fiber.Ctx, value any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Value: value})
}

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		body := classify(err)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", body.StatusCode),
			zap.Error(err),
		}
		if id := c.Get(fiber.HeaderXRequestID); id != "" {
			fields = append(fields, zap.String("correlationId", id))
		}
		if body.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("request error", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}

		return c.Status(body.StatusCode).JSON(Envelope{Error: &body})
	}
}

func classify(err error) ErrorBody {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return ErrorBody{StatusCode: fiber.StatusBadRequest, Name: NameBadRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorBody{StatusCode: fiber.StatusNotFound, Name: NameNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrTooManyRequests):
		return ErrorBody{StatusCode: fiber.StatusTooManyRequests, Name: NameTooManyRequests, Message: err.Error()}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return ErrorBody{StatusCode: fiberErr.Code, Name: statusName(fiberErr.Code), Message: fiberErr.Message}
	}

	return ErrorBody{
		StatusCode: fiber.StatusInternalServerError,
		Name:       NameInternalServerError,
		Message:    internalMessage,
	}
}

func statusName(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return NameBadRequest
	case fiber.StatusNotFound:
		return NameNotFound
	case fiber.StatusTooManyRequests:
		return NameTooManyRequests
	}
	return NameBadRequest
}
