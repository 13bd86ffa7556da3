package response

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// View states rendered by the external view renderer
const (
	StateLoading = "loading"
	StateError   = "error"
	StateReady   = "ready"
)

// Response represents a standard portal response
type Response struct {
	Success      bool          `json:"success"`
	State        string        `json:"state,omitempty"`
	Message      string        `json:"message,omitempty"`
	Data         interface{}   `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	Details      interface{}   `json:"details,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Location     string        `json:"location,omitempty"`
}

// Notification is a dismissible toast shown after a write
type Notification struct {
	Level       string `json:"level"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		State:   StateReady,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		State:   StateReady,
		Message: message,
		Data:    data,
		Notification: &Notification{
			Level:       "success",
			Message:     message,
			Dismissible: true,
		},
	})
}

// Done sends a 200 response for a completed write with a success toast
func Done(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		State:   StateReady,
		Message: message,
		Data:    data,
		Notification: &Notification{
			Level:       "success",
			Message:     message,
			Dismissible: true,
		},
	})
}

// Pending sends a 202 placeholder while the session or role is still resolving
func Pending(c *fiber.Ctx, message string, retryAfter int) error {
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusAccepted).JSON(Response{
		Success: false,
		State:   StateLoading,
		Message: message,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// ViewError sends the error state of a read view
func ViewError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		State:   StateError,
		Error:   message,
	})
}

// Notify sends a failed write as a dismissible notification
func Notify(c *fiber.Ctx, statusCode int, message string, details interface{}) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
		Details: details,
		Notification: &Notification{
			Level:       "error",
			Message:     message,
			Dismissible: true,
		},
	})
}

// Unprocessable sends a 422 with per-field validation details
func Unprocessable(c *fiber.Ctx, message string, details interface{}) error {
	return Notify(c, fiber.StatusUnprocessableEntity, message, details)
}

// SeeOther redirects after a form post
func SeeOther(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// LoginRequired sends a 401 pointing non-navigation requests at the login page
func LoginRequired(c *fiber.Ctx, location string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Response{
		Success:  false,
		Error:    "Authentication required",
		Location: location,
	})
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}
