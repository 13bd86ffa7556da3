// Package resource keeps per-session remote data keyed by endpoint and
// parameters. Concurrent readers of one key share a single in-flight load,
// every load carries a sequence number so late responses of superseded
// loads are dropped, and mutations invalidate their dependent keys once the
// write has settled.
package resource

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/metrics"
)

// Phase is the lifecycle state of one entry
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// ErrReleased is returned by Wait when the entry was evicted underneath it
var ErrReleased = errors.New("resource released")

// Loader fetches the value of a key. The context is canceled when the load
// is superseded or the entry is evicted.
type Loader func(ctx context.Context) (any, error)

// Snapshot is an immutable view of an entry
type Snapshot struct {
	Key       string
	Phase     Phase
	Value     any
	Err       error
	Seq       uint64
	UpdatedAt time.Time
}

// Settled reports whether the snapshot is success or error
func (s Snapshot) Settled() bool {
	return s.Phase == Success || s.Phase == Failed
}

// Value extracts a typed value from a snapshot
func Value[T any](s Snapshot) (T, bool) {
	v, ok := s.Value.(T)
	return v, ok
}

// Key builds a store key from an endpoint and its parameters. Parameters
// are sorted so equal requests get equal keys.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

type entry struct {
	key     string
	loader  Loader
	phase   Phase
	value   any
	err     error
	issued  uint64
	updated time.Time

	refs      int
	idleSince time.Time
	evicted   bool

	cancel context.CancelFunc
	done   chan struct{}

	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:       e.key,
		Phase:     e.phase,
		Value:     e.value,
		Err:       e.err,
		Seq:       e.issued,
		UpdatedAt: e.updated,
	}
}

// notification is a subscriber call made after the store lock is released
type notification struct {
	fns  []func(Snapshot)
	snap Snapshot
}

func (e *entry) notification() notification {
	n := notification{snap: e.snapshot()}
	for _, fn := range e.subs {
		n.fns = append(n.fns, fn)
	}
	return n
}

func (n notification) deliver() {
	for _, fn := range n.fns {
		fn(n.snap)
	}
}

// Store is the resource store of one browser session
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	linger  time.Duration
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewStore creates a Store. With a zero linger an entry is evicted as soon
// as its last handle is released; otherwise Sweep evicts it later.
func NewStore(linger time.Duration, log logrus.FieldLogger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		linger:  linger,
		now:     time.Now,
		log:     log,
	}
}

// Acquire returns a handle on key without starting a load. A new entry
// stays idle until Fetch or Handle.Load.
func (s *Store) Acquire(key string, loader Loader) *Handle {
	s.mu.Lock()
	e := s.acquire(key, loader)
	s.mu.Unlock()
	return &Handle{store: s, entry: e}
}

// Fetch acquires a handle on key, starting a load with loader if the entry
// has none in flight or settled. A second Fetch of the same key while a load
// is in flight shares that load. The first handle on an entry that failed,
// or that succeeded longer than the linger ago, reloads it with loader.
func (s *Store) Fetch(key string, loader Loader) *Handle {
	s.mu.Lock()
	e := s.acquire(key, loader)
	var n notification
	switch {
	case e.phase == Idle:
		n = s.issue(e)
	case e.refs == 1 && (e.phase == Failed || s.expired(e)):
		e.loader = loader
		n = s.issue(e)
	}
	s.mu.Unlock()

	n.deliver()
	return &Handle{store: s, entry: e}
}

// acquire finds or creates the entry of key and takes a reference. Caller
// holds s.mu.
func (s *Store) acquire(key string, loader Loader) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key, loader: loader, subs: make(map[uint64]func(Snapshot))}
		s.entries[key] = e
	}
	e.refs++
	e.idleSince = time.Time{}
	return e
}

// expired reports whether e settled successfully more than the linger ago.
// Caller holds s.mu.
func (s *Store) expired(e *entry) bool {
	return e.phase == Success && s.linger > 0 && s.now().Sub(e.updated) >= s.linger
}

// issue starts a new load for e. Caller holds s.mu.
func (s *Store) issue(e *entry) notification {
	if e.cancel != nil {
		e.cancel()
	}
	e.issued++
	seq := e.issued

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	if e.phase != Loading || e.done == nil {
		e.done = make(chan struct{})
	}
	e.phase = Loading

	go s.run(ctx, e, seq, e.loader)
	return e.notification()
}

func (s *Store) run(ctx context.Context, e *entry, seq uint64, loader Loader) {
	value, err := loader(ctx)

	s.mu.Lock()
	if e.evicted || seq != e.issued {
		s.mu.Unlock()
		metrics.RecordResourceLoad("stale")
		s.log.WithFields(logrus.Fields{"key": e.key, "seq": seq}).Debug("Dropped stale response")
		return
	}

	if err != nil {
		e.phase = Failed
		e.value = nil
		e.err = err
		metrics.RecordResourceLoad("error")
	} else {
		e.phase = Success
		e.value = value
		e.err = nil
		metrics.RecordResourceLoad("success")
	}
	e.updated = s.now()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	close(e.done)
	n := e.notification()
	s.mu.Unlock()

	n.deliver()
}

// Invalidate moves key back to loading with the loader it was fetched with.
// An in-flight load is superseded. It reports whether the key was present.
func (s *Store) Invalidate(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	n := s.issue(e)
	s.mu.Unlock()

	n.deliver()
	return true
}

// Mutate runs action and then invalidates each dependent key exactly once,
// whether the action succeeded or failed.
func (s *Store) Mutate(ctx context.Context, action func(ctx context.Context) (any, error), dependents ...string) (any, error) {
	result, err := action(ctx)

	seen := make(map[string]struct{}, len(dependents))
	for _, key := range dependents {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		s.Invalidate(key)
	}
	return result, err
}

// Sweep evicts unreferenced entries idle for longer than the linger period
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if e.refs == 0 && !e.idleSince.IsZero() && now.Sub(e.idleSince) >= s.linger {
			s.evict(key, e)
			evicted++
		}
	}
	return evicted
}

// Reset evicts every entry. It is used when the session's identity changes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		s.evict(key, e)
	}
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evict drops e. Caller holds s.mu.
func (s *Store) evict(key string, e *entry) {
	delete(s.entries, key)
	e.evicted = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.phase == Loading && e.done != nil {
		close(e.done)
	}
	metrics.RecordResourceLoad("evicted")
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.refs > 0 {
		e.refs--
	}
	if e.refs > 0 || e.evicted {
		return
	}
	if s.linger <= 0 {
		s.evict(e.key, e)
		return
	}
	e.idleSince = s.now()
}
