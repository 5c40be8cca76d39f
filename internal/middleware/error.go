package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
)

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// NewErrorHandler maps domain errors to HTTP statuses. Unexpected errors are
// logged with their trace id and reported as a generic 500.
func NewErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		resp, status := classify(err)
		resp.TraceID = uuid.New().String()[:8]

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("trace_id", resp.TraceID),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(resp)
	}
}

func classify(err error) (ErrorResponse, int) {
	var (
		fiberErr      *fiber.Error
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		authErr       *domain.AuthError
		forbiddenErr  *domain.ForbiddenError
		conflictErr   *domain.ConflictError
		remoteErr     *domain.RemoteUnavailableError
		rateErr       *domain.RateLimitedError
		quotaErr      *domain.QuotaExceededError
	)

	switch {
	case errors.As(err, &validationErr):
		return ErrorResponse{Code: "VALIDATION_ERROR", Message: validationErr.Message, Fields: validationErr.Fields}, fiber.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr):
		return ErrorResponse{Code: "NOT_FOUND", Message: notFoundErr.Error()}, fiber.StatusNotFound
	case errors.As(err, &authErr):
		return ErrorResponse{Code: "UNAUTHORIZED", Message: authErr.Message}, fiber.StatusUnauthorized
	case errors.As(err, &forbiddenErr):
		return ErrorResponse{Code: "FORBIDDEN", Message: forbiddenErr.Message}, fiber.StatusForbidden
	case errors.As(err, &conflictErr):
		return ErrorResponse{Code: "CONFLICT", Message: conflictErr.Message}, fiber.StatusConflict
	case errors.As(err, &rateErr):
		return ErrorResponse{Code: "RATE_LIMITED", Message: rateErr.Message}, fiber.StatusTooManyRequests
	case errors.As(err, &quotaErr):
		return ErrorResponse{Code: "QUOTA_EXCEEDED", Message: quotaErr.Message}, fiber.StatusPaymentRequired
	case errors.As(err, &remoteErr):
		return ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "A backing service is unavailable, please retry"}, fiber.StatusServiceUnavailable
	case errors.As(err, &fiberErr):
		return ErrorResponse{Code: fiberCode(fiberErr.Code), Message: fiberErr.Message}, fiberErr.Code
	}
	return ErrorResponse{Code: "INTERNAL_ERROR", Message: "Internal server error"}, fiber.StatusInternalServerError
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	}
	return "INTERNAL_ERROR"
}

func NewError(code int, message string) *fiber.Error {
	return fiber.NewError(code, message)
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, message)
}

func NotFound(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, message)
}

func Conflict(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusConflict, message)
}
