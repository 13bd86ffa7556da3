package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/session"
	"loanlink-portal/internal/core/validation"
)

// AuthService handles sign-in, registration and sign-out for a browser
// session
type AuthService struct {
	validate *validation.Validator
	log      logrus.FieldLogger
}

// NewAuthService creates a new auth service
func NewAuthService(validate *validation.Validator, log logrus.FieldLogger) *AuthService {
	return &AuthService{validate: validate, log: log}
}

// LoginForm is the login form
type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	From     string `json:"from" form:"from"`
}

// RegisterForm is the registration form
type RegisterForm struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	PhotoURL string `json:"photoURL" form:"photoURL" validate:"omitempty,url"`
	Password string `json:"password" form:"password" validate:"required,min=6,strongpassword"`
}

// LoginView is the context of the login page
type LoginView struct {
	From     string           `json:"from"`
	SignedIn bool             `json:"signedIn"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

// AuthResult is returned after a successful sign-in or registration
type AuthResult struct {
	Identity *domain.Identity `json:"identity"`
	Location string           `json:"location"`
	// Warning is set when registration left the backend user record behind
	Warning string `json:"warning,omitempty"`
}

// LoginContext echoes the sanitized return target
func (s *AuthService) LoginContext(sess *session.Session, from string) *LoginView {
	ident := sess.Store.Current()
	return &LoginView{
		From:     guard.SafeReturn(from),
		SignedIn: ident != nil,
		Identity: ident,
	}
}

// SignIn signs the session in and returns where to go next
func (s *AuthService) SignIn(ctx context.Context, sess *session.Session, form LoginForm) (*AuthResult, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, err
	}
	ident, err := sess.Store.SignIn(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		s.log.WithField("email", form.Email).WithError(err).Info("🔒 Sign-in rejected")
		return nil, err
	}
	return &AuthResult{Identity: ident, Location: guard.SafeReturn(form.From)}, nil
}

// Register creates an identity and its backend user record. A record that
// could not be written is reported as a warning; the identity stays signed in.
func (s *AuthService) Register(ctx context.Context, sess *session.Session, form RegisterForm) (*AuthResult, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, err
	}

	profile := domain.Profile{
		DisplayName: strings.TrimSpace(form.Name),
		PhotoURL:    strings.TrimSpace(form.PhotoURL),
	}
	ident, err := sess.Store.Register(ctx, strings.TrimSpace(form.Email), form.Password, profile)

	var ce *domain.ConsistencyError
	switch {
	case err == nil:
		return &AuthResult{Identity: ident, Location: guard.RouteHome}, nil
	case errors.As(err, &ce):
		return &AuthResult{
			Identity: ident,
			Location: guard.RouteHome,
			Warning:  "Your account was created but your profile could not be saved. Some pages may be unavailable until it is.",
		}, nil
	default:
		return nil, err
	}
}

// SignOut ends the session's identity
func (s *AuthService) SignOut(ctx context.Context, sess *session.Session) error {
	return sess.Store.SignOut(ctx)
}
