package resource

import (
	"context"
	"sync"
)

// Handle is one view's reference to an entry. Release it when the view is
// done; a released handle must not be used again.
type Handle struct {
	store *Store
	entry *entry
	once  sync.Once
}

// Key returns the entry key
func (h *Handle) Key() string { return h.entry.key }

// Snapshot returns the current state of the entry
func (h *Handle) Snapshot() Snapshot {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.entry.snapshot()
}

// Wait blocks until the entry settles or ctx is done. On ctx expiry it
// returns the current (loading) snapshot with the context error. Waiting
// on an idle entry only returns when ctx is done.
func (h *Handle) Wait(ctx context.Context) (Snapshot, error) {
	for {
		h.store.mu.Lock()
		e := h.entry
		snap := e.snapshot()
		if e.evicted {
			h.store.mu.Unlock()
			return snap, ErrReleased
		}
		if snap.Settled() {
			h.store.mu.Unlock()
			return snap, nil
		}
		done := e.done
		h.store.mu.Unlock()

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-done:
		}
	}
}

// Load starts the first load of an idle entry. It reports whether a load
// was issued.
func (h *Handle) Load() bool {
	s := h.store
	s.mu.Lock()
	if h.entry.evicted || h.entry.phase != Idle {
		s.mu.Unlock()
		return false
	}
	n := s.issue(h.entry)
	s.mu.Unlock()

	n.deliver()
	return true
}

// Retry re-issues a failed load. It is a no-op unless the entry is in error.
func (h *Handle) Retry() bool {
	s := h.store
	s.mu.Lock()
	if h.entry.evicted || h.entry.phase != Failed {
		s.mu.Unlock()
		return false
	}
	n := s.issue(h.entry)
	s.mu.Unlock()

	n.deliver()
	return true
}

// Invalidate re-enters loading for this entry
func (h *Handle) Invalidate() bool {
	return h.store.Invalidate(h.entry.key)
}

// Subscribe calls fn on every transition of the entry until the returned
// function is called. fn runs outside the store lock.
func (h *Handle) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s := h.store
	s.mu.Lock()
	id := h.entry.nextSub
	h.entry.nextSub++
	h.entry.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(h.entry.subs, id)
		s.mu.Unlock()
	}
}

// Release drops this reference. The last release evicts the entry (or
// starts its linger period) and cancels any in-flight load.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.store.release(h.entry)
	})
}
