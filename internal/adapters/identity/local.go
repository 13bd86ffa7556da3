package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/pkg/jwt"
	"loanlink-portal/internal/pkg/password"
)

// LocalConfig configures the local provider
type LocalConfig struct {
	Secret     string
	TokenTTL   time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Local implements Provider on top of the portal's own MySQL tables. It is
// meant for development and self-hosted deployments without Firebase.
type Local struct {
	accounts repositories.AccountRepository
	tokens   repositories.RefreshTokenRepository
	cfg      LocalConfig
	log      logrus.FieldLogger
}

// NewLocal creates a local provider
func NewLocal(accounts repositories.AccountRepository, tokens repositories.RefreshTokenRepository, cfg LocalConfig, log logrus.FieldLogger) *Local {
	return &Local{accounts: accounts, tokens: tokens, cfg: cfg, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Local) SignIn(ctx context.Context, email, pass string) (*domain.Identity, error) {
	account, err := l.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(pass, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if account.Disabled {
		return nil, &domain.AuthError{Kind: domain.InvalidCredentials, Err: domain.ErrSuspended}
	}

	l.log.WithField("email", account.Email).Info("🔐 Local sign-in")
	return l.issue(ctx, account)
}

func (l *Local) Register(ctx context.Context, email, pass string, profile domain.Profile) (*domain.Identity, error) {
	email = normalizeEmail(email)
	exists, err := l.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.ValidationError{Field: "email", Rule: "unique", Message: "Email is already registered"}
	}

	hash, err := password.Hash(pass, l.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	account := &models.LocalAccount{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  profile.DisplayName,
		PhotoURL:     profile.PhotoURL,
	}
	if err := l.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	l.log.WithField("email", email).Info("📝 Local account registered")
	return l.issue(ctx, account)
}

func (l *Local) Lookup(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := jwt.ValidateIdentityToken(token, l.cfg.Secret)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.Unauthenticated, Err: err}
	}
	account, err := l.accounts.GetByUID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if account.Disabled {
		return nil, &domain.AuthError{Kind: domain.Unauthenticated, Err: domain.ErrSuspended}
	}
	return &domain.Identity{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		PhotoURL:    account.PhotoURL,
		Token:       token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (l *Local) Refresh(ctx context.Context, refreshToken string) (*domain.Identity, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, l.cfg.Secret)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.Unauthenticated, Err: err}
	}

	hash := password.HashToken(refreshToken)
	stored, err := l.tokens.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if stored.IsExpired() || stored.UID != claims.UID {
		return nil, domain.ErrUnauthenticated
	}

	account, err := l.accounts.GetByUID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	if err := l.tokens.RevokeByTokenHash(ctx, hash); err != nil {
		return nil, err
	}
	return l.issue(ctx, account)
}

func (l *Local) UpdateProfile(ctx context.Context, token string, profile domain.Profile) error {
	claims, err := jwt.ValidateIdentityToken(token, l.cfg.Secret)
	if err != nil {
		return &domain.AuthError{Kind: domain.Unauthenticated, Err: err}
	}
	account, err := l.accounts.GetByUID(ctx, claims.UID)
	if err != nil {
		return err
	}
	account.DisplayName = profile.DisplayName
	account.PhotoURL = profile.PhotoURL
	return l.accounts.Update(ctx, account)
}

// SignOut revokes the identity's refresh token
func (l *Local) SignOut(ctx context.Context, ident *domain.Identity) error {
	if ident == nil || ident.RefreshToken == "" {
		return nil
	}
	return l.tokens.RevokeByTokenHash(ctx, password.HashToken(ident.RefreshToken))
}

func (l *Local) issue(ctx context.Context, account *models.LocalAccount) (*domain.Identity, error) {
	token, expires, err := jwt.GenerateIdentityToken(account.UID, account.Email, account.DisplayName, account.PhotoURL, l.cfg.Secret, l.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateRefreshToken(account.UID, uuid.NewString(), l.cfg.Secret, l.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if err := l.tokens.Create(ctx, &models.RefreshToken{
		UID:       account.UID,
		TokenHash: password.HashToken(refresh),
		ExpiresAt: time.Now().Add(l.cfg.RefreshTTL),
	}); err != nil {
		return nil, err
	}

	return &domain.Identity{
		UID:          account.UID,
		Email:        account.Email,
		DisplayName:  account.DisplayName,
		PhotoURL:     account.PhotoURL,
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    expires,
	}, nil
}
