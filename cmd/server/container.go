package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanlink-portal/internal/adapters/backend"
	"loanlink-portal/internal/adapters/http/handlers"
	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/adapters/http/routes"
	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/adapters/identity"
	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/config"
	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/payment"
	"loanlink-portal/internal/core/role"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/core/session"
	"loanlink-portal/internal/core/validation"
	"loanlink-portal/internal/pkg/logger"
)

// container holds the wired portal
type container struct {
	handlers    *routes.Handlers
	middlewares routes.Middlewares
	cron        *services.CronService
}

// newContainer builds repositories, adapters, shared services and handlers
func newContainer(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) (*container, error) {
	// Repositories
	sessionRepo := repositories.NewSessionRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)

	// Backend
	api := backend.New(httpclient.New(httpclient.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.BackendTimeout(),
		RPS:     cfg.Backend.RPS,
	}, logger.Component(log, "backend")))

	provider, tokens := newProvider(cfg, accountRepo, refreshRepo, log)

	// Shared services
	roles, err := role.NewResolver(api, cfg.Cache.RoleSize, cfg.BackendTimeout(), logger.Component(log, "roles"))
	if err != nil {
		return nil, err
	}
	policy, err := access.NewPolicy()
	if err != nil {
		return nil, err
	}
	reconciler, err := payment.NewReconciler(api, cfg.Cache.PaymentResults, cfg.BackendTimeout(), logger.Component(log, "payments"))
	if err != nil {
		return nil, err
	}
	registry, err := session.NewRegistry(session.RegistryConfig{
		Size:           cfg.Cache.SessionSize,
		TTL:            cfg.SessionTTL(),
		Linger:         cfg.ResourceLinger(),
		RestoreTimeout: cfg.BackendTimeout(),
	}, provider, sessionRepo, api, roles, logger.Component(log, "sessions"))
	if err != nil {
		return nil, err
	}
	validate := validation.New()
	table := guard.DefaultTable()

	// Views
	loanService := services.NewLoanService(api, policy, validate, log)
	applicationService := services.NewApplicationService(api, loanService, policy, validate, services.PaymentURLs{
		Success: cfg.Payment.SuccessURL,
		Cancel:  cfg.Payment.CancelURL,
	}, log)
	userService := services.NewUserService(api, roles, policy, validate, log)
	paymentService := services.NewPaymentService(reconciler, log)
	authService := services.NewAuthService(validate, log)
	dashboardService := services.NewDashboardService(table, policy, applicationService, userService, log)

	cronService, err := services.NewCronService(services.CronSchedules{
		Purge: cfg.Cron.Purge,
		Sweep: cfg.Cron.Sweep,
	}, registry, tokens, logger.Component(log, "cron"))
	if err != nil {
		return nil, err
	}

	checks := map[string]handlers.Check{
		"database": func(context.Context) error { return config.HealthCheck(db) },
		"backend":  api.Ping,
	}

	return &container{
		handlers: &routes.Handlers{
			Health:      handlers.NewHealthHandler(cfg.AppMode, checks),
			Auth:        handlers.NewAuthHandler(authService),
			Loan:        handlers.NewLoanHandler(loanService),
			Application: handlers.NewApplicationHandler(applicationService),
			Payment:     handlers.NewPaymentHandler(paymentService, cfg.GuardWait()),
			User:        handlers.NewUserHandler(userService),
			Dashboard:   handlers.NewDashboardHandler(dashboardService),
		},
		middlewares: routes.Middlewares{
			Session: middleware.Session(registry, middleware.SessionOptions{
				Secret: cfg.Session.Secret,
				TTL:    cfg.SessionTTL(),
				Cookie: cfg.Cookie,
			}, logger.Component(log, "sessions")),
			Guard:    middleware.Guard(table, roles, cfg.GuardWait(), logger.Component(log, "guard")),
			ViewWait: cfg.GuardWait(),
		},
		cron: cronService,
	}, nil
}

// newProvider selects the identity provider. tokens is nil for Firebase,
// whose refresh tokens are not stored by the portal.
func newProvider(cfg *config.Config, accounts repositories.AccountRepository, refresh repositories.RefreshTokenRepository, log logrus.FieldLogger) (identity.Provider, services.TokenPurger) {
	if cfg.Identity.Provider == "local" {
		return identity.NewLocal(accounts, refresh, identity.LocalConfig{
			Secret:     cfg.Identity.TokenSecret,
			TokenTTL:   time.Duration(cfg.Identity.TokenMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.Identity.RefreshDays) * 24 * time.Hour,
			BcryptCost: cfg.Identity.BcryptCost,
		}, logger.Component(log, "identity")), refresh
	}

	// No base URL: the provider calls the auth and token hosts
	client := httpclient.New(httpclient.Config{Timeout: cfg.BackendTimeout()}, logger.Component(log, "identity"))
	return identity.NewFirebase(identity.FirebaseConfig{
		APIKey:   cfg.Identity.FirebaseKey,
		AuthURL:  cfg.Identity.FirebaseAuth,
		TokenURL: cfg.Identity.FirebaseToken,
	}, client), nil
}
