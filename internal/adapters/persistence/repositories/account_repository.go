package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/core/domain"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new local account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *models.LocalAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByUID gets an account by provider uid
func (r *accountRepository) GetByUID(ctx context.Context, uid string) (*models.LocalAccount, error) {
	return r.first(ctx, "uid = ?", uid)
}

// GetByEmail gets an account by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.LocalAccount, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *accountRepository) first(ctx context.Context, query string, arg any) (*models.LocalAccount, error) {
	var account models.LocalAccount
	err := r.db.WithContext(ctx).Where(query, arg).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Update updates an account
func (r *accountRepository) Update(ctx context.Context, account *models.LocalAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// ExistsByEmail checks if email exists
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LocalAccount{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}
