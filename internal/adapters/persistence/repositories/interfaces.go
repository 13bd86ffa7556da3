package repositories

import (
	"context"
	"time"

	"loanlink-portal/internal/adapters/persistence/models"
)

// SessionRepository stores browser-session credentials
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.PersistedSession, error)
	Save(ctx context.Context, session *models.PersistedSession) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AccountRepository defines local account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.LocalAccount) error
	GetByUID(ctx context.Context, uid string) (*models.LocalAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.LocalAccount, error)
	Update(ctx context.Context, account *models.LocalAccount) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUID(ctx context.Context, uid string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
