package main

import (
	"context"

	"github.com/spf13/cobra"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/config"
)

var (
	seedEmail    string
	seedPassword string
	seedName     string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the portal tables",
	Long: `migrate creates persisted_sessions, local_accounts and refresh_tokens.
With --seed-email it also creates a local account for IDENTITY_PROVIDER=local.`,
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

		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("✅ Database migration completed")

		if seedEmail == "" {
			return nil
		}
		seeder := config.NewSeeder(repositories.NewAccountRepository(db), cfg.Identity.BcryptCost, log)
		return seeder.SeedAccount(context.Background(), seedEmail, seedPassword, seedName)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&seedEmail, "seed-email", "", "Email of a local account to create")
	migrateCmd.Flags().StringVar(&seedPassword, "seed-password", "", "Password of the seeded account")
	migrateCmd.Flags().StringVar(&seedName, "seed-name", "", "Display name of the seeded account")
}
