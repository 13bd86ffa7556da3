package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"loanlink-portal/internal/config"
	"loanlink-portal/internal/pkg/logger"

	_ "loanlink-portal/docs" // Swagger docs
)

// @title LoanLink Portal API
// @version 1.0
// @description Session-aware portal for the LoanLink loan marketplace
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@loanlink.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

var rootCmd = &cobra.Command{
	Use:   "loanlink-portal",
	Short: "LoanLink portal server",
	Long: `loanlink-portal serves the LoanLink web portal: browser sessions, role-gated
navigation and the views over the loan-marketplace backend.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and builds the logger it selects
func loadConfig() (*config.Config, *logrus.Logger, error) {
	boot := logger.New(os.Getenv("APP_MODE"), "info")
	cfg, err := config.Load(boot)
	if err != nil {
		return nil, nil, fmt.Errorf("❌ failed to load configuration: %w", err)
	}
	return cfg, logger.New(cfg.AppMode, cfg.LogLevel), nil
}
