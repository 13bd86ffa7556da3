package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/adapters/identity"
	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/adapters/persistence/repositories"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/resource"
	"loanlink-portal/internal/metrics"
)

// RoleCache is the part of the role resolver a session drives
type RoleCache interface {
	Begin(ident *domain.Identity, tokens httpclient.TokenSource)
	Forget(email string)
}

// Session is one browser session: its identity store, its resource cache
// and one-shot messages carried across a redirect.
type Session struct {
	ID        string
	Store     *Store
	Resources *resource.Store

	mu    sync.Mutex
	flash map[string]any
}

// NewSession assembles a session from its parts
func NewSession(id string, store *Store, resources *resource.Store) *Session {
	return &Session{ID: id, Store: store, Resources: resources, flash: make(map[string]any)}
}

// SetFlash keeps value until the next TakeFlash of key
func (s *Session) SetFlash(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash[key] = value
}

// TakeFlash returns and removes the value stored under key
func (s *Session) TakeFlash(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.flash[key]
	delete(s.flash, key)
	return v, ok
}

// RegistryConfig holds registry settings
type RegistryConfig struct {
	Size           int
	TTL            time.Duration
	Linger         time.Duration
	RestoreTimeout time.Duration
}

// Registry maps session ids to sessions. Sessions live in a bounded LRU;
// one that fell out of memory is rebuilt and restored from its persisted
// credential on the next request.
type Registry struct {
	cfg      RegistryConfig
	provider identity.Provider
	repo     repositories.SessionRepository
	users    UserCreator
	roles    RoleCache
	log      logrus.FieldLogger

	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

// NewRegistry creates a registry
func NewRegistry(cfg RegistryConfig, provider identity.Provider, repo repositories.SessionRepository, users UserCreator, roles RoleCache, log logrus.FieldLogger) (*Registry, error) {
	sessions, err := lru.NewWithEvict[string, *Session](cfg.Size, func(id string, s *Session) {
		s.Resources.Reset()
		log.WithField("session", id).Debug("Session evicted from memory")
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:      cfg,
		provider: provider,
		repo:     repo,
		users:    users,
		roles:    roles,
		log:      log,
		sessions: sessions,
	}, nil
}

// New creates a fresh session with a random id
func (r *Registry) New() *Session {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.build(id)
	r.sessions.Add(id, s)
	metrics.SetActiveSessions(r.sessions.Len())
	return s
}

// Get returns the session with id. A session not in memory is rebuilt and
// starts restoring its persisted credential in the background.
func (r *Registry) Get(id string) *Session {
	if s, ok := r.sessions.Get(id); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(id); ok {
		return s
	}

	s := r.build(id)
	r.sessions.Add(id, s)
	metrics.SetActiveSessions(r.sessions.Len())

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RestoreTimeout)
	s.Store.beginRestore()
	go func() {
		defer cancel()
		if err := s.Store.Restore(ctx); err != nil {
			r.log.WithField("session", id).WithError(err).Warn("⚠️  Session restore failed")
		}
	}()
	return s
}

func (r *Registry) build(id string) *Session {
	log := r.log.WithField("session", id)
	persister := &sessionPersister{repo: r.repo, id: id, ttl: r.cfg.TTL, now: time.Now}

	s := NewSession(id, NewStore(r.provider, persister, r.users, log), resource.NewStore(r.cfg.Linger, log))
	s.Store.Subscribe(func(ev Event) { r.onEvent(s, ev) })
	return s
}

// onEvent keeps the shared role cache and the session's resources in step
// with its identity.
func (r *Registry) onEvent(s *Session, ev Event) {
	switch ev.Kind {
	case EventSignedOut:
		if ev.Previous != nil {
			r.roles.Forget(ev.Previous.Email)
		}
		s.Resources.Reset()
	case EventSignedIn:
		if ev.Previous != nil && ev.Previous.Email != ev.Identity.Email {
			r.roles.Forget(ev.Previous.Email)
		}
		s.Resources.Reset()
		r.roles.Begin(ev.Identity, s.Store)
	case EventRestored:
		r.roles.Begin(ev.Identity, s.Store)
	}
}

// Sweep evicts lingering resources of every in-memory session
func (r *Registry) Sweep(now time.Time) int {
	evicted := 0
	for _, id := range r.sessions.Keys() {
		if s, ok := r.sessions.Peek(id); ok {
			evicted += s.Resources.Sweep(now)
		}
	}
	return evicted
}

// Purge deletes expired persisted sessions
func (r *Registry) Purge(ctx context.Context) (int64, error) {
	n, err := r.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.WithField("count", n).Info("🧹 Purged expired sessions")
	}
	return n, nil
}

// Len returns the number of sessions in memory
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// sessionPersister keeps one session's credential in persisted_sessions
type sessionPersister struct {
	repo repositories.SessionRepository
	id   string
	ttl  time.Duration
	now  func() time.Time
}

func (p *sessionPersister) Load(ctx context.Context) (*Credential, error) {
	row, err := p.repo.Get(ctx, p.id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if row.IsExpired(p.now()) {
		return nil, p.repo.Delete(ctx, p.id)
	}

	cred := &Credential{
		Email:        row.Email,
		Token:        row.IDToken,
		RefreshToken: row.RefreshToken,
	}
	if row.TokenExpiresAt != nil {
		cred.ExpiresAt = *row.TokenExpiresAt
	}
	return cred, nil
}

func (p *sessionPersister) Save(ctx context.Context, ident *domain.Identity) error {
	row := &models.PersistedSession{
		ID:           p.id,
		Email:        ident.Email,
		IDToken:      ident.Token,
		RefreshToken: ident.RefreshToken,
		ExpiresAt:    p.now().Add(p.ttl),
	}
	if !ident.ExpiresAt.IsZero() {
		exp := ident.ExpiresAt
		row.TokenExpiresAt = &exp
	}
	return p.repo.Save(ctx, row)
}

func (p *sessionPersister) Clear(ctx context.Context) error {
	err := p.repo.Delete(ctx, p.id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
