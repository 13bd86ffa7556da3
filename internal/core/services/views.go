package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"loanlink-portal/internal/adapters/backend"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/resource"
	"loanlink-portal/internal/core/session"
)

// Viewer is who a view is rendered for
type Viewer struct {
	Session  *session.Session
	Identity *domain.Identity
	Role     domain.Role
}

// Email of the signed-in viewer, or ""
func (v Viewer) Email() string {
	if v.Identity == nil {
		return ""
	}
	return v.Identity.Email
}

// Resource keys
var (
	KeyLoans        = resource.Key(backend.PathLoans, nil)
	KeyUsers        = resource.Key(backend.PathUsers, nil)
	KeyApplications = resource.Key(backend.PathApplications, nil)
)

// KeyLoan is the key of one loan
func KeyLoan(id string) string { return backend.LoanPath(id) }

// KeyUser is the key of one user record
func KeyUser(email string) string { return backend.UserPath(email) }

// KeyMyLoans is the key of a borrower's applications
func KeyMyLoans(email string) string {
	return resource.Key(backend.PathMyLoans, url.Values{"email": {email}})
}

// load mounts key on the viewer's resource store, waits for it to settle
// and releases it again. A read error is returned as is; a wait cut short
// by ctx returns ErrStillLoading.
func load[T any](ctx context.Context, store *resource.Store, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	h := store.Fetch(key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	defer h.Release()

	snap, err := h.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, resource.ErrReleased) {
			return zero, fmt.Errorf("%s: %w", key, ErrStillLoading)
		}
		return zero, err
	}
	if snap.Phase == resource.Failed {
		return zero, snap.Err
	}

	v, ok := resource.Value[T](snap)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected value %T", key, snap.Value)
	}
	return v, nil
}

// mutate runs a write through the viewer's resource store so the given
// keys are refetched once it settles
func mutate(ctx context.Context, store *resource.Store, action func(ctx context.Context) error, dependents ...string) error {
	_, err := store.Mutate(ctx, func(ctx context.Context) (any, error) {
		return nil, action(ctx)
	}, dependents...)
	return err
}

func isStillLoading(err error) bool {
	return errors.Is(err, ErrStillLoading)
}
