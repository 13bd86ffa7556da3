// Package identity adapts the external identity provider. The portal talks
// to it only through Provider; firebase and local are interchangeable.
package identity

import (
	"context"

	"loanlink-portal/internal/core/domain"
)

// Provider issues and verifies identities
type Provider interface {
	// SignIn exchanges credentials for an identity with a bearer token
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	// Register creates a provider identity and applies the profile to it
	Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.Identity, error)
	// Lookup verifies a bearer token and returns its identity
	Lookup(ctx context.Context, token string) (*domain.Identity, error)
	// Refresh trades a refresh token for a fresh identity
	Refresh(ctx context.Context, refreshToken string) (*domain.Identity, error)
	// UpdateProfile changes display name and photo
	UpdateProfile(ctx context.Context, token string, profile domain.Profile) error
	// SignOut ends the provider side of an identity, if there is one
	SignOut(ctx context.Context, ident *domain.Identity) error
}
