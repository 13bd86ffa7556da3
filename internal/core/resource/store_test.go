package resource

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(linger time.Duration) *Store {
	log, _ := test.NewNullLogger()
	return NewStore(linger, log)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFetchDeduplicatesInFlightLoads(t *testing.T) {
	s := newStore(0)
	var calls atomic.Int32
	gate := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return []string{"a", "b"}, nil
	}

	h1 := s.Fetch("/loans", loader)
	h2 := s.Fetch("/loans", loader)
	defer h1.Release()
	defer h2.Release()

	assert.Equal(t, Loading, h1.Snapshot().Phase)
	close(gate)

	snap1, err := h1.Wait(waitCtx(t))
	require.NoError(t, err)
	snap2, err := h2.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Success, snap1.Phase)
	assert.Equal(t, snap1.Value, snap2.Value)
}

func TestStaleResponseIsDropped(t *testing.T) {
	s := newStore(0)
	gates := map[int32]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	started := make(chan int32, 2)
	var n atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		call := n.Add(1)
		started <- call
		<-gates[call]
		if call == 1 {
			return "old", nil
		}
		return "new", nil
	}

	h := s.Fetch("/loans/1", loader)
	defer h.Release()
	require.Equal(t, int32(1), <-started)
	require.True(t, h.Invalidate())
	require.Equal(t, int32(2), <-started)

	// the newer load settles first, then the superseded one
	close(gates[2])
	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "new", snap.Value)
	assert.Equal(t, uint64(2), snap.Seq)

	close(gates[1])
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "new", h.Snapshot().Value)
}

func TestErrorClearsValueAndRetryReloads(t *testing.T) {
	s := newStore(0)
	var fail atomic.Bool
	loader := func(ctx context.Context) (any, error) {
		if fail.Load() {
			return nil, errors.New("boom")
		}
		return 42, nil
	}

	h := s.Fetch("/x", loader)
	defer h.Release()
	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 42, snap.Value)

	assert.False(t, h.Retry(), "retry is only valid from error")

	fail.Store(true)
	h.Invalidate()
	snap, err = h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, Failed, snap.Phase)
	assert.Nil(t, snap.Value)
	assert.EqualError(t, snap.Err, "boom")

	fail.Store(false)
	require.True(t, h.Retry())
	snap, err = h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, Success, snap.Phase)
	assert.Equal(t, 42, snap.Value)
}

func TestValueRetainedWhileReloading(t *testing.T) {
	s := newStore(0)
	gate := make(chan struct{})
	var n atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		if n.Add(1) > 1 {
			<-gate
		}
		return int(n.Load()), nil
	}

	h := s.Fetch("/x", loader)
	defer h.Release()
	_, err := h.Wait(waitCtx(t))
	require.NoError(t, err)

	h.Invalidate()
	snap := h.Snapshot()
	assert.Equal(t, Loading, snap.Phase)
	assert.Equal(t, 1, snap.Value)
	close(gate)
}

func TestMutateInvalidatesDependentsOnceAfterAction(t *testing.T) {
	s := newStore(0)
	var loads atomic.Int32
	h := s.Fetch("/loans", func(ctx context.Context) (any, error) {
		return int(loads.Add(1)), nil
	})
	defer h.Release()
	_, err := h.Wait(waitCtx(t))
	require.NoError(t, err)

	var events []Phase
	var mu sync.Mutex
	unsubscribe := h.Subscribe(func(snap Snapshot) {
		mu.Lock()
		events = append(events, snap.Phase)
		mu.Unlock()
	})
	defer unsubscribe()

	actionDone := make(chan struct{})
	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		mu.Lock()
		assert.Empty(t, events, "no invalidation before the write settles")
		mu.Unlock()
		close(actionDone)
		return nil, nil
	}, "/loans", "/loans", "/loans/1")
	require.NoError(t, err)
	<-actionDone

	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Value)
	assert.Equal(t, int32(2), loads.Load(), "duplicate dependents collapse to one invalidation")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2 && events[0] == Loading && events[1] == Success
	}, time.Second, 5*time.Millisecond)
}

func TestMutateFailureStillInvalidates(t *testing.T) {
	s := newStore(0)
	var loads atomic.Int32
	h := s.Fetch("/my-loans", func(ctx context.Context) (any, error) {
		return int(loads.Add(1)), nil
	})
	defer h.Release()
	_, err := h.Wait(waitCtx(t))
	require.NoError(t, err)

	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("write rejected")
	}, "/my-loans")
	assert.EqualError(t, err, "write rejected")

	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Value)
}

func TestReleaseEvictsAndCancelsLoader(t *testing.T) {
	s := newStore(0)
	canceled := make(chan struct{})
	h := s.Fetch("/slow", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	})

	h.Release()
	h.Release()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("loader was not canceled")
	}
	assert.Zero(t, s.Len())

	_, err := h.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrReleased)
}

func TestLingerKeepsEntryUntilSweep(t *testing.T) {
	s := newStore(time.Minute)
	var loads atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return int(loads.Add(1)), nil
	}

	h := s.Fetch("/loans", loader)
	_, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	h.Release()
	assert.Equal(t, 1, s.Len())

	h2 := s.Fetch("/loans", loader)
	snap, err := h2.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Value, "cached value is reused")
	h2.Release()

	assert.Zero(t, s.Sweep(time.Now()))
	assert.Equal(t, 1, s.Sweep(time.Now().Add(2*time.Minute)))
	assert.Zero(t, s.Len())
}

func TestWaitHonorsContext(t *testing.T) {
	s := newStore(0)
	gate := make(chan struct{})
	defer close(gate)
	h := s.Fetch("/slow", func(ctx context.Context) (any, error) {
		<-gate
		return nil, nil
	})
	defer h.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Loading, snap.Phase)
}

func TestKeySortsParams(t *testing.T) {
	a := Key("/my-loans", url.Values{"email": {"a@b.c"}, "status": {"Pending"}})
	b := Key("/my-loans", url.Values{"status": {"Pending"}, "email": {"a@b.c"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "/loans", Key("/loans", nil))
}

func TestAcquireStaysIdleUntilLoad(t *testing.T) {
	s := newStore(0)
	var calls atomic.Int32
	h := s.Acquire("/users", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return 3, nil
	})
	defer h.Release()

	assert.Equal(t, Idle, h.Snapshot().Phase)
	assert.Zero(t, calls.Load())

	require.True(t, h.Load())
	assert.False(t, h.Load())

	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	v, ok := Value[int](snap)
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemountRetriesFailedEntry(t *testing.T) {
	s := newStore(time.Minute)
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("backend down")
		}
		return "loans", nil
	}

	h := s.Fetch("/loans", loader)
	snap, err := h.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, Failed, snap.Phase)
	h.Release()

	h = s.Fetch("/loans", loader)
	defer h.Release()
	snap, err = h.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, Success, snap.Phase)
	assert.Equal(t, "loans", snap.Value)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSharedHandleDoesNotRetryFailedEntry(t *testing.T) {
	s := newStore(time.Minute)
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, errors.New("backend down")
	}

	h1 := s.Fetch("/loans", loader)
	defer h1.Release()
	_, err := h1.Wait(waitCtx(t))
	require.NoError(t, err)

	h2 := s.Fetch("/loans", loader)
	defer h2.Release()
	assert.Equal(t, Failed, h2.Snapshot().Phase)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemountRevalidatesAfterLinger(t *testing.T) {
	s := newStore(30 * time.Second)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	advance := func(d time.Duration) {
		mu.Lock()
		clock = clock.Add(d)
		mu.Unlock()
	}

	var loads atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return int(loads.Add(1)), nil
	}
	mount := func() Snapshot {
		h := s.Fetch("/loans", loader)
		defer h.Release()
		snap, err := h.Wait(waitCtx(t))
		require.NoError(t, err)
		return snap
	}

	assert.Equal(t, 1, mount().Value)

	advance(10 * time.Second)
	assert.Equal(t, 1, mount().Value, "fresh value is reused")

	advance(25 * time.Second)
	assert.Equal(t, 2, mount().Value, "value older than the linger is reloaded")
	assert.Equal(t, int32(2), loads.Load())
}
