package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/core/domain"
)

type memSessions struct {
	mu   sync.Mutex
	rows map[string]models.PersistedSession
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]models.PersistedSession{}}
}

func (m *memSessions) Get(_ context.Context, id string) (*models.PersistedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (m *memSessions) Save(_ context.Context, s *models.PersistedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, row := range m.rows {
		if row.IsExpired(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeRoles struct {
	mu        sync.Mutex
	begun     []string
	forgotten []string
}

func (f *fakeRoles) Begin(ident *domain.Identity, _ httpclient.TokenSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, ident.Email)
}

func (f *fakeRoles) Forget(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, email)
}

func newTestRegistry(t *testing.T, size int) (*Registry, *fakeProvider, *memSessions, *fakeRoles) {
	t.Helper()
	log, _ := test.NewNullLogger()
	p := newFakeProvider()
	repo := newMemSessions()
	roles := &fakeRoles{}
	reg, err := NewRegistry(RegistryConfig{
		Size:           size,
		TTL:            time.Hour,
		RestoreTimeout: time.Second,
	}, p, repo, &fakeUsers{}, roles, log)
	require.NoError(t, err)
	return reg, p, repo, roles
}

func TestRegistryGetReturnsSameSession(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t, 8)

	s := reg.New()
	assert.Same(t, s, reg.Get(s.ID))
	assert.Equal(t, 1, reg.Len())
}

func TestSignInPersistsAndStartsRoleLookup(t *testing.T) {
	reg, _, repo, roles := newTestRegistry(t, 8)
	s := reg.New()

	_, err := s.Store.SignIn(context.Background(), "ann@example.com", "Secret1!")
	require.NoError(t, err)

	row, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", row.Email)
	assert.Equal(t, []string{"ann@example.com"}, roles.begun)
}

func TestSignOutForgetsRoleAndResetsResources(t *testing.T) {
	reg, _, _, roles := newTestRegistry(t, 8)
	s := reg.New()
	ctx := context.Background()

	_, err := s.Store.SignIn(ctx, "ann@example.com", "Secret1!")
	require.NoError(t, err)

	h := s.Resources.Fetch("/my-loans", func(context.Context) (any, error) { return []string{"a"}, nil })
	defer h.Release()
	require.Equal(t, 1, s.Resources.Len())

	require.NoError(t, s.Store.SignOut(ctx))
	assert.Equal(t, []string{"ann@example.com"}, roles.forgotten)
	assert.Zero(t, s.Resources.Len())
}

func TestEvictedSessionIsRestored(t *testing.T) {
	reg, _, _, roles := newTestRegistry(t, 1)
	ctx := context.Background()

	first := reg.New()
	_, err := first.Store.SignIn(ctx, "ann@example.com", "Secret1!")
	require.NoError(t, err)

	reg.New() // pushes first out of memory
	require.Equal(t, 1, reg.Len())

	again := reg.Get(first.ID)
	assert.NotSame(t, first, again)

	select {
	case <-again.Store.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("restore did not finish")
	}
	require.NotNil(t, again.Store.Current())
	assert.Equal(t, "ann@example.com", again.Store.Current().Email)
	assert.Len(t, roles.begun, 2)
}

func TestUnknownSessionStartsAnonymous(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t, 8)

	s := reg.Get("never-issued")
	<-s.Store.Ready()
	assert.Nil(t, s.Store.Current())
}

func TestPurgeDeletesExpiredRows(t *testing.T) {
	reg, _, repo, _ := newTestRegistry(t, 8)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &models.PersistedSession{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, repo.Save(ctx, &models.PersistedSession{ID: "new", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := reg.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestFlashIsReadOnce(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t, 8)
	s := reg.New()

	s.SetFlash("payment", "ok")
	v, ok := s.TakeFlash("payment")
	require.True(t, ok)
	assert.Equal(t, "ok", v)

	_, ok = s.TakeFlash("payment")
	assert.False(t, ok)
}
