package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"

	"loanlink-portal/internal/adapters/http/handlers"
	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/metrics"
)

// Handlers groups the portal's handlers
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Loan        *handlers.LoanHandler
	Application *handlers.ApplicationHandler
	Payment     *handlers.PaymentHandler
	User        *handlers.UserHandler
	Dashboard   *handlers.DashboardHandler
}

// Middlewares are the per-request session and guard layers
type Middlewares struct {
	Session fiber.Handler
	Guard   fiber.Handler
	// ViewWait bounds how long GET views wait for their data
	ViewWait time.Duration
}

// Setup configures all routes for the application
func Setup(app *fiber.App, h *Handlers, mw Middlewares) {
	app.Use(middleware.Metrics())

	// Operational routes sit in front of the session layer
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(mw.Session, mw.Guard, middleware.ViewDeadline(mw.ViewWait))

	setupPublicRoutes(app, h)
	setupAuthRoutes(app, h.Auth)

	dashboard := app.Group("/dashboard", middleware.NoCacheHeaders())
	dashboard.Get("/", h.Dashboard.Overview)
	setupBorrowerRoutes(dashboard, h.Application, h.Payment)
	setupManagerRoutes(dashboard, h.Loan, h.Application)
	setupAdminRoutes(dashboard, h.Loan, h.Application, h.User)
	setupProfileRoutes(dashboard, h.User)
}

// setupPublicRoutes configures the catalog and the loan pages
func setupPublicRoutes(app *fiber.App, h *Handlers) {
	app.Get("/", h.Loan.Home)
	app.Get("/all-loans", middleware.CacheControl(30*time.Second), h.Loan.AllLoans)
	app.Get("/view-details/:id", h.Loan.Details)
	app.Get("/apply-loan/:id", h.Application.ApplyPage)
	app.Post("/apply-loan/:id", h.Application.Apply)
}

// setupAuthRoutes configures sign-in, registration and sign-out
func setupAuthRoutes(app *fiber.App, handler *handlers.AuthHandler) {
	app.Get("/login", handler.LoginPage)
	app.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	app.Get("/register", handler.RegisterPage)
	app.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	app.Post("/logout", handler.Logout)
}

// setupBorrowerRoutes configures my-loans and the payment return pages
func setupBorrowerRoutes(router fiber.Router, apps *handlers.ApplicationHandler, payments *handlers.PaymentHandler) {
	myLoans := router.Group("/my-loans")
	myLoans.Get("/", apps.MyLoans)
	myLoans.Patch("/:id/cancel", apps.Cancel)
	myLoans.Post("/:id/pay-fee", apps.PayFee)

	router.Get("/payment-success", payments.Success)
	router.Get("/payment-cancelled", payments.Cancelled)
}

// setupManagerRoutes configures loan authoring and application review
func setupManagerRoutes(router fiber.Router, loans *handlers.LoanHandler, apps *handlers.ApplicationHandler) {
	router.Get("/add-loan", loans.AddPage)
	router.Post("/add-loan", loans.Add)

	manage := router.Group("/manage-loans")
	manage.Get("/", loans.Manage)
	manage.Patch("/:id", loans.Update)
	manage.Delete("/:id", loans.Delete)

	pending := router.Group("/pending-loans")
	pending.Get("/", apps.Pending)
	pending.Patch("/:id/:action", apps.Review)

	router.Get("/approved-loans", apps.Approved)
}

// setupAdminRoutes configures user and catalog administration
func setupAdminRoutes(router fiber.Router, loans *handlers.LoanHandler, apps *handlers.ApplicationHandler, users *handlers.UserHandler) {
	manageUsers := router.Group("/manage-users")
	manageUsers.Get("/", users.ListUsers)
	manageUsers.Patch("/:email/role", users.SetRole)
	manageUsers.Patch("/:email/suspend", users.Suspend)

	allLoans := router.Group("/manage-all-loans")
	allLoans.Get("/", loans.Manage)
	allLoans.Patch("/:id", loans.Update)
	allLoans.Patch("/:id/show-on-home", loans.ToggleHome)
	allLoans.Delete("/:id", loans.Delete)

	router.Get("/manage-loan-applications", apps.ManageApplications)
}

// setupProfileRoutes configures the profile page
func setupProfileRoutes(router fiber.Router, users *handlers.UserHandler) {
	router.Get("/profile", users.Profile)
	router.Patch("/profile", users.UpdateProfile)
}
