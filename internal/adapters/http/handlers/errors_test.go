package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/services"
)

func statusOf(t *testing.T, render func(*fiber.Ctx, error) error, err error) (int, http.Header) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return render(c, err) })
	resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, testErr)
	return resp.StatusCode, resp.Header
}

func TestViewFailureStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"still loading", services.ErrStillLoading, fiber.StatusAccepted},
		{"not permitted", services.ErrNotPermitted, fiber.StatusForbidden},
		{"not found", fmt.Errorf("loan l9: %w", domain.ErrNotFound), fiber.StatusNotFound},
		{"expired token", &domain.AuthError{Kind: domain.Unauthenticated}, fiber.StatusUnauthorized},
		{"timeout", &domain.NetworkError{Kind: domain.Timeout}, fiber.StatusGatewayTimeout},
		{"upstream 500", &domain.NetworkError{Kind: domain.ServerError, Status: 500}, fiber.StatusBadGateway},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusOf(t, viewFailure, tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestWriteFailureStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "loanAmount", Rule: "required", Message: "Loan amount is required"}, fiber.StatusUnprocessableEntity},
		{"not pending", services.ErrNotPending, fiber.StatusConflict},
		{"fee paid", services.ErrFeeAlreadyPaid, fiber.StatusConflict},
		{"own role", services.ErrCannotChangeOwnRole, fiber.StatusConflict},
		{"bad password", domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"suspended", &domain.AuthError{Kind: domain.InvalidCredentials, Err: domain.ErrSuspended}, fiber.StatusUnauthorized},
		{"not permitted", services.ErrNotPermitted, fiber.StatusForbidden},
		{"unreachable", &domain.NetworkError{Kind: domain.Unreachable}, fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusOf(t, writeFailure, tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestPendingCarriesRetryAfter(t *testing.T) {
	_, header := statusOf(t, viewFailure, services.ErrStillLoading)
	assert.Equal(t, "1", header.Get(fiber.HeaderRetryAfter))
}
