// Package session holds the signed-in identity of one browser session and
// the registry that maps session cookies to their stores.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/adapters/identity"
	"loanlink-portal/internal/core/domain"
)

// EventKind identifies a session transition
type EventKind int

const (
	EventRestored EventKind = iota + 1
	EventSignedIn
	EventSignedOut
	EventProfileUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventRestored:
		return "restored"
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventProfileUpdated:
		return "profile_updated"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after every identity change
type Event struct {
	Kind     EventKind
	Identity *domain.Identity
	Previous *domain.Identity
}

// Credential is what a Persister keeps between restarts
type Credential struct {
	Email        string
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

// Persister stores the credential of one session
type Persister interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, ident *domain.Identity) error
	Clear(ctx context.Context) error
}

// UserCreator writes the backend user record after registration
type UserCreator interface {
	CreateUser(ctx context.Context, tokens httpclient.TokenSource, user domain.User) error
}

// Store is the single writer of one session's identity
type Store struct {
	provider  identity.Provider
	persister Persister
	users     UserCreator
	log       logrus.FieldLogger
	now       func() time.Time

	mu      sync.RWMutex
	current *domain.Identity
	loading bool
	ready   chan struct{}
	subs    map[int]func(Event)
	nextSub int

	refreshMu sync.Mutex
}

// NewStore creates an empty, settled store
func NewStore(provider identity.Provider, persister Persister, users UserCreator, log logrus.FieldLogger) *Store {
	ready := make(chan struct{})
	close(ready)
	return &Store{
		provider:  provider,
		persister: persister,
		users:     users,
		log:       log,
		now:       time.Now,
		ready:     ready,
		subs:      make(map[int]func(Event)),
	}
}

// Current returns a copy of the signed-in identity, or nil
func (s *Store) Current() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Loading reports whether the initial restore is still running
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once the store is not loading
func (s *Store) Ready() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Subscribe registers fn for identity changes until the returned function
// is called. fn runs synchronously after the change is applied.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// swap replaces the identity and returns the previous one
func (s *Store) swap(ident *domain.Identity) *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = ident
	return prev
}

func (s *Store) beginRestore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return
	}
	s.loading = true
	s.ready = make(chan struct{})
}

func (s *Store) endRestore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		return
	}
	s.loading = false
	close(s.ready)
}

// StartRestore marks the store loading and restores in the background
func (s *Store) StartRestore(ctx context.Context) {
	s.beginRestore()
	go func() {
		if err := s.Restore(ctx); err != nil {
			s.log.WithError(err).Warn("⚠️  Session restore failed")
		}
	}()
}

// Restore reloads a persisted credential. Loading is true until it returns.
// A credential the provider no longer accepts is refreshed once and cleared
// if that fails too.
func (s *Store) Restore(ctx context.Context) error {
	s.beginRestore()
	defer s.endRestore()

	cred, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if cred == nil {
		return nil
	}

	ident, err := s.provider.Lookup(ctx, cred.Token)
	if err == nil {
		ident.RefreshToken = cred.RefreshToken
		if ident.ExpiresAt.IsZero() {
			ident.ExpiresAt = cred.ExpiresAt
		}
	} else if errors.Is(err, domain.ErrUnauthenticated) && cred.RefreshToken != "" {
		ident, err = s.provider.Refresh(ctx, cred.RefreshToken)
		if err == nil {
			if perr := s.persister.Save(ctx, ident); perr != nil {
				s.log.WithError(perr).Warn("⚠️  Could not persist refreshed credential")
			}
		}
	}

	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.log.WithField("email", cred.Email).Info("🔒 Persisted session no longer valid")
			return s.persister.Clear(ctx)
		}
		return err
	}

	s.mu.Lock()
	if s.current != nil {
		// a sign-in completed while we were restoring; it wins
		s.mu.Unlock()
		return nil
	}
	s.current = ident
	s.mu.Unlock()

	s.log.WithField("email", ident.Email).Info("♻️  Session restored")
	s.notify(Event{Kind: EventRestored, Identity: ident})
	return nil
}

// SignIn authenticates with the provider and makes the identity current
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	ident, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, ident)
	prev := s.swap(ident)
	s.endRestore()

	s.log.WithField("email", ident.Email).Info("✅ Signed in")
	s.notify(Event{Kind: EventSignedIn, Identity: ident, Previous: prev})
	return ident, nil
}

// Register creates a provider identity, signs it in and writes the backend
// user record. If the record cannot be written the identity is still signed
// in and a *domain.ConsistencyError is returned alongside it.
func (s *Store) Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.Identity, error) {
	ident, err := s.provider.Register(ctx, email, password, profile)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, ident)
	prev := s.swap(ident)
	s.endRestore()

	s.log.WithField("email", ident.Email).Info("✅ Registered")
	s.notify(Event{Kind: EventSignedIn, Identity: ident, Previous: prev})

	record := domain.User{
		Email:       ident.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Role:        domain.RoleBorrower,
		Status:      domain.UserActive,
	}
	if err := s.users.CreateUser(ctx, s, record); err != nil {
		s.log.WithField("email", ident.Email).WithError(err).Error("❌ User record not created for new identity")
		return ident, &domain.ConsistencyError{Op: "create user record", Err: err}
	}
	return ident, nil
}

// SignOut clears the identity. Signing out with no identity is a no-op.
func (s *Store) SignOut(ctx context.Context) error {
	prev := s.swap(nil)
	s.endRestore()

	if err := s.persister.Clear(ctx); err != nil {
		s.log.WithError(err).Warn("⚠️  Could not clear persisted session")
	}
	if prev == nil {
		return nil
	}

	if err := s.provider.SignOut(ctx, prev); err != nil {
		s.log.WithError(err).Warn("⚠️  Provider sign-out failed")
	}
	s.log.WithField("email", prev.Email).Info("👋 Signed out")
	s.notify(Event{Kind: EventSignedOut, Previous: prev})
	return nil
}

// Token returns a bearer token for the current identity, refreshing it when
// it is about to expire.
func (s *Store) Token(ctx context.Context) (string, error) {
	ident := s.Current()
	if ident == nil {
		return "", domain.ErrUnauthenticated
	}
	if !ident.Expired(s.now()) {
		return ident.Token, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ident = s.Current()
	if ident == nil {
		return "", domain.ErrUnauthenticated
	}
	if !ident.Expired(s.now()) {
		return ident.Token, nil
	}
	if ident.RefreshToken == "" {
		return "", &domain.AuthError{Kind: domain.Unauthenticated, Err: errors.New("token expired")}
	}

	fresh, err := s.provider.Refresh(ctx, ident.RefreshToken)
	if err != nil {
		return "", err
	}
	if fresh.DisplayName == "" {
		fresh.DisplayName = ident.DisplayName
	}
	if fresh.PhotoURL == "" {
		fresh.PhotoURL = ident.PhotoURL
	}

	s.mu.Lock()
	if s.current == nil || s.current.Email != ident.Email {
		s.mu.Unlock()
		return "", domain.ErrUnauthenticated
	}
	s.current = fresh
	s.mu.Unlock()

	s.persist(ctx, fresh)
	return fresh.Token, nil
}

// UpdateProfile changes the provider profile and the current identity
func (s *Store) UpdateProfile(ctx context.Context, profile domain.Profile) (*domain.Identity, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.provider.UpdateProfile(ctx, token, profile); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, domain.ErrUnauthenticated
	}
	updated := *s.current
	updated.DisplayName = profile.DisplayName
	updated.PhotoURL = profile.PhotoURL
	s.current = &updated
	s.mu.Unlock()

	cp := updated
	s.notify(Event{Kind: EventProfileUpdated, Identity: &cp})
	return &cp, nil
}

func (s *Store) persist(ctx context.Context, ident *domain.Identity) {
	if err := s.persister.Save(ctx, ident); err != nil {
		s.log.WithField("email", ident.Email).WithError(err).Warn("⚠️  Could not persist session")
	}
}
