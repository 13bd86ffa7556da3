package role

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

type fakeUsers struct {
	calls atomic.Int32
	gate  chan struct{}
	users map[string]domain.User
	err   error
}

func (f *fakeUsers) GetUser(ctx context.Context, _ httpclient.TokenSource, email string) (*domain.User, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func newResolver(t *testing.T, users UserLookup) *Resolver {
	t.Helper()
	log, _ := test.NewNullLogger()
	r, err := NewResolver(users, 16, time.Second, log)
	require.NoError(t, err)
	return r
}

var ann = &domain.Identity{Email: "ann@example.com"}

func TestResolveLooksUpOncePerIdentity(t *testing.T) {
	users := &fakeUsers{
		gate:  make(chan struct{}),
		users: map[string]domain.User{"ann@example.com": {Email: "ann@example.com", Role: domain.RoleAdmin}},
	}
	r := newResolver(t, users)

	role, loading := r.State(ann.Email)
	assert.Equal(t, domain.RoleNone, role)
	assert.True(t, loading)

	var wg sync.WaitGroup
	results := make([]domain.Role, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background(), ann, nil)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(users.gate)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, domain.RoleAdmin, got)
	}
	_, _ = r.Resolve(context.Background(), ann, nil)
	assert.Equal(t, int32(1), users.calls.Load())

	role, loading = r.State("ANN@example.com")
	assert.Equal(t, domain.RoleAdmin, role)
	assert.False(t, loading)
}

func TestMissingRecordIsUnknown(t *testing.T) {
	r := newResolver(t, &fakeUsers{users: map[string]domain.User{}})

	role, err := r.Resolve(context.Background(), ann, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUnknown, role)

	_, loading := r.State(ann.Email)
	assert.False(t, loading)
}

func TestFailedLookupIsUnknown(t *testing.T) {
	r := newResolver(t, &fakeUsers{err: errors.New("backend down")})

	role, err := r.Resolve(context.Background(), ann, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUnknown, role)
}

func TestUnrecognizedRoleIsUnknown(t *testing.T) {
	r := newResolver(t, &fakeUsers{users: map[string]domain.User{
		"ann@example.com": {Email: "ann@example.com", Role: "superuser"},
	}})

	role, err := r.Resolve(context.Background(), ann, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUnknown, role)
}

func TestCallerTimeoutDoesNotAbortLookup(t *testing.T) {
	users := &fakeUsers{
		gate:  make(chan struct{}),
		users: map[string]domain.User{"ann@example.com": {Email: "ann@example.com", Role: domain.RoleBorrower}},
	}
	r := newResolver(t, users)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.Resolve(ctx, ann, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(users.gate)
	assert.Eventually(t, func() bool {
		role, loading := r.State(ann.Email)
		return !loading && role == domain.RoleBorrower
	}, time.Second, 5*time.Millisecond)
}

func TestForgetDiscardsInFlightResult(t *testing.T) {
	users := &fakeUsers{
		gate:  make(chan struct{}),
		users: map[string]domain.User{"ann@example.com": {Email: "ann@example.com", Role: domain.RoleManager}},
	}
	r := newResolver(t, users)

	r.Begin(ann, nil)
	time.Sleep(10 * time.Millisecond)
	r.Forget(ann.Email)
	close(users.gate)
	time.Sleep(20 * time.Millisecond)

	_, loading := r.State(ann.Email)
	assert.True(t, loading, "result of a forgotten lookup is not cached")

	role, err := r.Resolve(context.Background(), ann, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)
	assert.Equal(t, int32(2), users.calls.Load())
}
