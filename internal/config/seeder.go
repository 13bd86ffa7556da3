package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	accounts repositories.AccountRepository
	cost     int
	log      logrus.FieldLogger
}

// NewSeeder creates a new seeder instance
func NewSeeder(accounts repositories.AccountRepository, cost int, log logrus.FieldLogger) *Seeder {
	return &Seeder{accounts: accounts, cost: cost, log: log}
}

// SeedAccount creates a local account unless one already uses the email.
// This is for development with IDENTITY_PROVIDER=local; the account's role
// still comes from the backend user record.
func (s *Seeder) SeedAccount(ctx context.Context, email, pass, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		s.log.WithField("email", email).Info("🌱 Account already seeded")
		return nil
	}
	if !password.IsStrong(pass) {
		return fmt.Errorf("seed password for %s is too weak", email)
	}

	hashed, err := password.Hash(pass, s.cost)
	if err != nil {
		return err
	}
	account := &models.LocalAccount{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  name,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}

	s.log.WithField("email", email).Info("✅ Local account seeded")
	return nil
}
