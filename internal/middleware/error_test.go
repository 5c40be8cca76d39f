package middleware_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
)

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"Validation", domain.NewFieldError("email", "is required"), fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"Not Found", domain.NewNotFoundError("registration", uuid.New()), fiber.StatusNotFound, "NOT_FOUND"},
		{"Auth", domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"Forbidden", &domain.ForbiddenError{Message: "no"}, fiber.StatusForbidden, "FORBIDDEN"},
		{"Conflict", &domain.ConflictError{Message: "stale"}, fiber.StatusConflict, "CONFLICT"},
		{"Rate Limited", domain.ErrRateLimited, fiber.StatusTooManyRequests, "RATE_LIMITED"},
		{"Quota", domain.ErrQuotaExceeded, fiber.StatusPaymentRequired, "QUOTA_EXCEEDED"},
		{"Remote", domain.NewRemoteUnavailable("list", errors.New("dial tcp: refused")), fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"Wrapped", fmt.Errorf("approve: %w", &domain.ConflictError{Message: "taken"}), fiber.StatusConflict, "CONFLICT"},
		{"Fiber", middleware.BadRequest("Invalid request body"), fiber.StatusBadRequest, "BAD_REQUEST"},
		{"Unexpected", errors.New("nil pointer"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var body middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.TraceID)
		})
	}
}

func TestErrorHandler_HidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.NewRemoteUnavailable("count", errors.New("password authentication failed for user registry"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body.Message, "password")
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return &domain.ValidationError{Message: "validation failed", Fields: map[string]string{"first_name": "is required"}}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"first_name": "is required"}, body.Fields)
}
