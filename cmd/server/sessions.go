package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/config"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Maintain persisted browser sessions",
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions and refresh tokens",
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

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		now := time.Now()
		sessions, err := repositories.NewSessionRepository(db).DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		tokens, err := repositories.NewRefreshTokenRepository(db).DeleteExpired(ctx, now)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{"sessions": sessions, "tokens": tokens}).Info("🧹 Expired records purged")
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(purgeCmd)
}
