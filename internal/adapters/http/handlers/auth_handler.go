package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

// AuthHandler handles sign-in, registration and sign-out
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// finish answers a successful auth form: JSON clients get the next
// location in the body, form posts are redirected there.
func finish(c *fiber.Ctx, message string, result *services.AuthResult) error {
	if c.Is("json") {
		return response.Done(c, message, result)
	}
	return response.SeeOther(c, result.Location)
}

// LoginPage returns the login form context
// @Summary Login page
// @Description Returns the sanitized return target and the current identity
// @Tags Auth
// @Produce json
// @Param from query string false "Path to return to after sign-in"
// @Success 200 {object} response.Response
// @Router /login [get]
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	view := h.authService.LoginContext(middleware.SessionFrom(c), c.Query("from"))
	return response.Success(c, "", view)
}

// Login signs the session in
// @Summary Sign in
// @Description Signs in with email and password and returns where to go next
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginForm true "Credentials"
// @Success 200 {object} response.Response
// @Success 303
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form services.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if form.From == "" {
		form.From = c.Query("from")
	}

	result, err := h.authService.SignIn(c.UserContext(), middleware.SessionFrom(c), form)
	if err != nil {
		return writeFailure(c, err)
	}
	return finish(c, "Signed in successfully", result)
}

// RegisterPage returns the registration form context
// @Summary Registration page
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /register [get]
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	view := h.authService.LoginContext(middleware.SessionFrom(c), guard.RouteHome)
	return response.Success(c, "", view)
}

// Register creates an account and signs the session in
// @Summary Register
// @Description Creates a provider identity and its borrower user record
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterForm true "Registration data"
// @Success 201 {object} response.Response
// @Success 303
// @Failure 422 {object} response.Response
// @Router /register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form services.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.UserContext(), middleware.SessionFrom(c), form)
	if err != nil {
		return writeFailure(c, err)
	}
	if !c.Is("json") {
		return response.SeeOther(c, result.Location)
	}
	if result.Warning != "" {
		return c.Status(fiber.StatusCreated).JSON(response.Response{
			Success: true,
			State:   response.StateReady,
			Message: "Account created",
			Data:    result,
			Notification: &response.Notification{
				Level:       "warning",
				Message:     result.Warning,
				Dismissible: true,
			},
		})
	}
	return response.Created(c, "Account created", result)
}

// Logout signs the session out
// @Summary Sign out
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Success 303
// @Router /logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.SignOut(c.UserContext(), middleware.SessionFrom(c)); err != nil {
		return writeFailure(c, err)
	}
	return finish(c, "Signed out", &services.AuthResult{Location: guard.RouteHome})
}
