package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

// UserHandler handles user administration and the profile page
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers lists users for the admin table
// @Summary Manage users
// @Tags Users
// @Produce json
// @Param search query string false "Matches email or display name"
// @Param role query string false "borrower, manager or admin"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/manage-users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	view, err := h.userService.Manage(c.UserContext(), middleware.ViewerFrom(c), c.Query("search"), c.Query("role"))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// SetRole changes a user's role
// @Summary Set user role
// @Tags Users
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param body body services.SetRoleForm true "Role"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/manage-users/{email}/role [patch]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	var form services.SetRoleForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.SetRole(c.UserContext(), middleware.ViewerFrom(c), c.Params("email"), form); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Role updated", nil)
}

// Suspend suspends a user
// @Summary Suspend user
// @Tags Users
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param body body services.SuspendForm true "Reason and feedback"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/manage-users/{email}/suspend [patch]
func (h *UserHandler) Suspend(c *fiber.Ctx) error {
	var form services.SuspendForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.Suspend(c.UserContext(), middleware.ViewerFrom(c), c.Params("email"), form); err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "User suspended", nil)
}

// Profile returns the viewer's identity and user record
// @Summary My profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/profile [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	view, err := h.userService.Profile(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return viewFailure(c, err)
	}
	return response.Success(c, "", view)
}

// UpdateProfile changes the viewer's display name and photo
// @Summary Update my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body services.ProfileForm true "Profile"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /dashboard/profile [patch]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var form services.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	ident, err := h.userService.UpdateProfile(c.UserContext(), middleware.ViewerFrom(c), form)
	if err != nil {
		return writeFailure(c, err)
	}
	return response.Done(c, "Profile updated", ident)
}
