package services

import (
	"context"
	"errors"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

// Backend is the part of the loan-marketplace API the views use
type Backend interface {
	ListLoans(ctx context.Context, tokens httpclient.TokenSource) ([]domain.Loan, error)
	GetLoan(ctx context.Context, tokens httpclient.TokenSource, id string) (*domain.Loan, error)
	AddLoan(ctx context.Context, tokens httpclient.TokenSource, loan domain.Loan) (string, error)
	UpdateLoan(ctx context.Context, tokens httpclient.TokenSource, id string, patch domain.LoanPatch) error
	DeleteLoan(ctx context.Context, tokens httpclient.TokenSource, id string) error

	GetUser(ctx context.Context, tokens httpclient.TokenSource, email string) (*domain.User, error)
	ListUsers(ctx context.Context, tokens httpclient.TokenSource) ([]domain.User, error)
	UpdateUser(ctx context.Context, tokens httpclient.TokenSource, email string, patch domain.UserPatch) error

	MyApplications(ctx context.Context, tokens httpclient.TokenSource, email string) ([]domain.LoanApplication, error)
	ListApplications(ctx context.Context, tokens httpclient.TokenSource) ([]domain.LoanApplication, error)
	SubmitApplication(ctx context.Context, tokens httpclient.TokenSource, app domain.LoanApplication) (string, error)
	TransitionApplication(ctx context.Context, tokens httpclient.TokenSource, id, action string) error
	CreatePaymentSession(ctx context.Context, tokens httpclient.TokenSource, req domain.PaymentSessionRequest) (string, error)
}

// RoleRefresher re-resolves the cached role of an identity
type RoleRefresher interface {
	Refresh(ctx context.Context, ident *domain.Identity, tokens httpclient.TokenSource) (domain.Role, error)
}

// Service errors
var (
	// ErrStillLoading means a view's data did not settle before the caller
	// stopped waiting; the view renders its loading placeholder.
	ErrStillLoading = errors.New("still loading")
	// ErrNotPermitted means the viewer's role may not perform the action
	ErrNotPermitted = errors.New("action not permitted for this role")
	// ErrNotPending means the application has already been reviewed or cancelled
	ErrNotPending = errors.New("application is no longer pending")
	// ErrFeeAlreadyPaid means the application fee needs no checkout
	ErrFeeAlreadyPaid = errors.New("application fee already paid")
	// ErrCannotChangeOwnRole stops an admin from demoting themselves
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
)
