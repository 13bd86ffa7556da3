package config

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/core/domain"
)

type seedAccounts struct {
	byEmail map[string]*models.LocalAccount
}

func (s *seedAccounts) Create(_ context.Context, a *models.LocalAccount) error {
	s.byEmail[a.Email] = a
	return nil
}

func (s *seedAccounts) GetByUID(context.Context, string) (*models.LocalAccount, error) {
	return nil, domain.ErrNotFound
}

func (s *seedAccounts) GetByEmail(_ context.Context, email string) (*models.LocalAccount, error) {
	if a, ok := s.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (s *seedAccounts) Update(context.Context, *models.LocalAccount) error { return nil }

func (s *seedAccounts) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := s.byEmail[email]
	return ok, nil
}

func TestSeedAccount(t *testing.T) {
	log, _ := test.NewNullLogger()
	accounts := &seedAccounts{byEmail: map[string]*models.LocalAccount{}}
	seeder := NewSeeder(accounts, bcrypt.MinCost, log)

	require.NoError(t, seeder.SeedAccount(context.Background(), " Admin@LoanLink.dev ", "Admin123!", "Admin"))
	seeded, ok := accounts.byEmail["admin@loanlink.dev"]
	require.True(t, ok)
	assert.NotEmpty(t, seeded.UID)
	assert.NotEqual(t, "Admin123!", seeded.PasswordHash)

	// a second run keeps the first account
	require.NoError(t, seeder.SeedAccount(context.Background(), "admin@loanlink.dev", "Other123!", "Other"))
	assert.Equal(t, "Admin", accounts.byEmail["admin@loanlink.dev"].DisplayName)

	err := seeder.SeedAccount(context.Background(), "weak@loanlink.dev", "weak", "Weak")
	assert.Error(t, err)
}
