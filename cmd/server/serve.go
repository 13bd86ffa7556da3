package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/adapters/http/routes"
	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := config.ConnectDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db)

		// Portal tables only; loans, users and applications live in the backend
		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("✅ Database migration completed")

		c, err := newContainer(cfg, db, log)
		if err != nil {
			return err
		}

		c.cron.Start()
		defer c.cron.Stop()

		app := fiber.New(fiber.Config{
			AppName:       "LoanLink Portal v1.0",
			CaseSensitive: true,
			ErrorHandler:  middleware.CustomErrorHandler(log),
		})
		middleware.Setup(app, cfg, log)
		routes.Setup(app, c.handlers, c.middlewares)

		go gracefulShutdown(app, log)

		log.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).Info("🚀 Server starting")
		return app.Listen(":" + cfg.Port)
	},
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log logrus.FieldLogger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("❌ Error during shutdown")
	}
	log.Info("✅ Server stopped gracefully")
}
