// Package role resolves the authorization role of an identity from the
// backend user-record service. It is shared by every browser session.
package role

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/metrics"
)

// UserLookup fetches the user record of an email
type UserLookup interface {
	GetUser(ctx context.Context, tokens httpclient.TokenSource, email string) (*domain.User, error)
}

// Resolver caches one role per email. Concurrent resolutions of the same
// email share one backend lookup. A failed lookup or a missing record
// resolves to domain.RoleUnknown.
type Resolver struct {
	users   UserLookup
	cache   *lru.Cache[string, domain.Role]
	group   singleflight.Group
	timeout time.Duration
	log     logrus.FieldLogger

	mu   sync.Mutex
	gens map[string]uint64
}

// NewResolver creates a Resolver holding at most size roles
func NewResolver(users UserLookup, size int, timeout time.Duration, log logrus.FieldLogger) (*Resolver, error) {
	cache, err := lru.New[string, domain.Role](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		users:   users,
		cache:   cache,
		timeout: timeout,
		log:     log,
		gens:    make(map[string]uint64),
	}, nil
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// State returns the cached role of email and whether it is still loading.
// An email with no settled lookup counts as loading.
func (r *Resolver) State(email string) (domain.Role, bool) {
	if email == "" {
		return domain.RoleNone, false
	}
	if role, ok := r.cache.Get(key(email)); ok {
		return role, false
	}
	return domain.RoleNone, true
}

// Begin starts resolving ident in the background
func (r *Resolver) Begin(ident *domain.Identity, tokens httpclient.TokenSource) {
	if ident == nil {
		return
	}
	if _, ok := r.cache.Peek(key(ident.Email)); ok {
		return
	}
	go func() {
		_, _ = r.Resolve(context.Background(), ident, tokens)
	}()
}

// Resolve returns the role of ident, looking it up at most once. The lookup
// runs detached from ctx so a caller giving up does not abort it for the
// other waiters; ctx only bounds how long this caller waits.
func (r *Resolver) Resolve(ctx context.Context, ident *domain.Identity, tokens httpclient.TokenSource) (domain.Role, error) {
	if ident == nil || ident.Email == "" {
		return domain.RoleNone, nil
	}
	k := key(ident.Email)
	if role, ok := r.cache.Get(k); ok {
		return role, nil
	}

	r.mu.Lock()
	gen := r.gens[k]
	r.mu.Unlock()

	ch := r.group.DoChan(k, func() (interface{}, error) {
		if role, ok := r.cache.Peek(k); ok {
			return role, nil
		}

		lctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		role := r.lookup(lctx, ident, tokens)

		r.mu.Lock()
		if r.gens[k] == gen {
			r.cache.Add(k, role)
		}
		r.mu.Unlock()
		return role, nil
	})

	select {
	case <-ctx.Done():
		return domain.RoleNone, ctx.Err()
	case res := <-ch:
		return res.Val.(domain.Role), nil
	}
}

func (r *Resolver) lookup(ctx context.Context, ident *domain.Identity, tokens httpclient.TokenSource) domain.Role {
	log := r.log.WithField("email", ident.Email)

	user, err := r.users.GetUser(ctx, tokens, ident.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordRoleLookup("missing")
			log.Warn("⚠️  No user record, role is unknown")
		} else {
			metrics.RecordRoleLookup("failed")
			log.WithError(err).Warn("⚠️  Role lookup failed, role is unknown")
		}
		return domain.RoleUnknown
	}

	role := domain.ParseRole(string(user.Role))
	metrics.RecordRoleLookup(string(role))
	log.WithField("role", role).Debug("Role resolved")
	return role
}

// Forget drops the cached role of email. A lookup already in flight will not
// write its result back.
func (r *Resolver) Forget(email string) {
	k := key(email)
	r.mu.Lock()
	r.gens[k]++
	r.cache.Remove(k)
	r.mu.Unlock()
	r.group.Forget(k)
}

// Refresh forgets and re-resolves ident, e.g. after an admin changes roles
func (r *Resolver) Refresh(ctx context.Context, ident *domain.Identity, tokens httpclient.TokenSource) (domain.Role, error) {
	if ident == nil {
		return domain.RoleNone, nil
	}
	r.Forget(ident.Email)
	return r.Resolve(ctx, ident, tokens)
}
