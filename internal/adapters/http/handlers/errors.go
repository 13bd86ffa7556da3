package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

const retryAfterSeconds = 1

// networkStatus maps a transport failure to the status shown to the browser
func networkStatus(err error) (int, bool) {
	var ne *domain.NetworkError
	if !errors.As(err, &ne) {
		return 0, false
	}
	if domain.IsNetwork(err, domain.Timeout) {
		return fiber.StatusGatewayTimeout, true
	}
	return fiber.StatusBadGateway, true
}

// viewFailure renders a read view that could not be built
func viewFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrStillLoading):
		return response.Pending(c, "Loading...", retryAfterSeconds)
	case errors.Is(err, services.ErrNotPermitted):
		return response.Forbidden(c, "You are not allowed to view this page")
	case errors.Is(err, domain.ErrNotFound):
		return response.ViewError(c, fiber.StatusNotFound, "Not found")
	case domain.IsAuth(err, domain.Unauthenticated), domain.IsAuth(err, domain.Unauthorized):
		return response.ViewError(c, fiber.StatusUnauthorized, "Please sign in again")
	}
	if status, ok := networkStatus(err); ok {
		return response.ViewError(c, status, "Could not load data, please retry")
	}
	return response.ViewError(c, fiber.StatusInternalServerError, "Something went wrong")
}

// writeFailure reports a failed write as a dismissible notification
func writeFailure(c *fiber.Ctx, err error) error {
	if list, ok := domain.AsValidation(err); ok {
		return response.Unprocessable(c, "Please check the highlighted fields", list)
	}

	switch {
	case errors.Is(err, services.ErrStillLoading):
		return response.Pending(c, "Loading...", retryAfterSeconds)
	case errors.Is(err, services.ErrNotPermitted):
		return response.Notify(c, fiber.StatusForbidden, "You are not allowed to do that", nil)
	case errors.Is(err, domain.ErrNotFound):
		return response.Notify(c, fiber.StatusNotFound, "Not found", nil)
	case errors.Is(err, services.ErrNotPending):
		return response.Notify(c, fiber.StatusConflict, "This application is no longer pending", nil)
	case errors.Is(err, services.ErrFeeAlreadyPaid):
		return response.Notify(c, fiber.StatusConflict, "The application fee is already paid", nil)
	case errors.Is(err, services.ErrCannotChangeOwnRole):
		return response.Notify(c, fiber.StatusConflict, "You cannot change your own role", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		if errors.Is(err, domain.ErrSuspended) {
			return response.Notify(c, fiber.StatusUnauthorized, "This account is suspended", nil)
		}
		return response.Notify(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	case domain.IsAuth(err, domain.Unauthenticated), domain.IsAuth(err, domain.Unauthorized):
		return response.Notify(c, fiber.StatusUnauthorized, "Please sign in again", nil)
	}
	if status, ok := networkStatus(err); ok {
		return response.Notify(c, status, "The server could not be reached, please retry", nil)
	}
	return response.Notify(c, fiber.StatusInternalServerError, "Something went wrong", nil)
}
