package backend

import (
	"context"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

// GetUser fetches the user record for email
func (a *API) GetUser(ctx context.Context, tokens httpclient.TokenSource, email string) (*domain.User, error) {
	var user domain.User
	if err := a.http.Credentialed(tokens).Get(ctx, UserPath(email), &user); err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

// ListUsers returns every user record (admin only on the backend)
func (a *API) ListUsers(ctx context.Context, tokens httpclient.TokenSource) ([]domain.User, error) {
	var users []domain.User
	if err := a.http.Credentialed(tokens).Get(ctx, PathUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser writes the user record that accompanies a new identity
func (a *API) CreateUser(ctx context.Context, tokens httpclient.TokenSource, user domain.User) error {
	return a.http.Credentialed(tokens).Post(ctx, PathUsers, user, nil)
}

// UpdateUser patches a user record
func (a *API) UpdateUser(ctx context.Context, tokens httpclient.TokenSource, email string, patch domain.UserPatch) error {
	return a.http.Credentialed(tokens).Patch(ctx, UserPath(email), patch, nil)
}
