// Package entrystore implements the shared in-memory entry store underneath
// the data fetch queries and the cache orchestrator.
//
// Each entry moves through a small lifecycle: absent -> fetched -> fresh ->
// stale -> (refetching | evicted). An entry turns stale when its freshness
// window expires or when it is explicitly invalidated; it is evicted only by
// an explicit Sweep of zero-observer entries. There is no background
// eviction.
//
// Every key carries a generation counter that is bumped by writes and
// invalidations. A fetch captures the generation before it starts and its
// result is committed only if the generation is unchanged, so a late-resolving
// fetch can never overwrite a newer invalidation or optimistic write.
package entrystore

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/posalpro/go-dashboard-cache/querykey"
)

// State describes where an entry currently sits in its lifecycle.
type State uint8

const (
	// StateFresh means the value is within its freshness window.
	StateFresh State = iota
	// StateStale means the window expired or the entry was invalidated;
	// the value keeps being served while a refetch is pending.
	StateStale
)

// String returns the lifecycle label used in logs and telemetry payloads.
func (s State) String() string {
	if s == StateFresh {
		return "fresh"
	}
	return "stale"
}

// Windows holds the freshness policy applied to one entry. Stale is how long
// a committed value counts as fresh; Retain is how long a zero-observer entry
// survives a Sweep after its last commit.
type Windows struct {
	Stale  time.Duration
	Retain time.Duration
}

// FetchFn loads the authoritative value for a key.
type FetchFn func(ctx context.Context) (any, error)

// Lookup is the outcome of a GetOrFetch read.
type Lookup struct {
	// Value is the served value. Only meaningful when Found is true.
	Value any
	// Found reports whether a value (fresh or stale) was available.
	Found bool
	// Hit reports whether the value came from the store without a
	// synchronous fetch.
	Hit bool
	// Refreshing reports whether a background refetch is in flight for
	// this key.
	Refreshing bool
	// UpdatedAt is when the served value was last committed.
	UpdatedAt time.Time
	// Err carries the most recent fetch failure for this key, if any.
	// A stale value and Err can be set at the same time.
	Err error
}

// Snapshot is a read-only view of one entry, used by tests and telemetry.
type Snapshot struct {
	Value       any
	State       State
	Refreshing  bool
	Provisional bool
	UpdatedAt   time.Time
	Observers   int
}

type entry struct {
	value       any
	err         error
	state       State
	refreshing  bool
	provisional bool
	updatedAt   time.Time
	staleAt     time.Time
	retainUntil time.Time
	windows     Windows
}

// Config carries the store dependencies. Zero values select a real clock and
// a disabled logger.
type Config struct {
	Clock  clockwork.Clock
	Logger zerolog.Logger
}

// Store is the shared cache instance. It is safe for concurrent use; all
// entry mutation happens under one mutex, and fetches for the same key are
// coalesced through a singleflight group.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	observers map[string]int
	gens      map[string]uint64

	clock  clockwork.Clock
	log    zerolog.Logger
	flight singleflight.Group
}

// New constructs an empty store.
func New(cfg Config) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		entries:   make(map[string]*entry),
		observers: make(map[string]int),
		gens:      make(map[string]uint64),
		clock:     clock,
		log:       cfg.Logger,
	}
}

// GetOrFetch serves the entry for key, fetching when needed.
//
// A fresh entry is returned as-is. A stale entry is returned immediately and
// a background refetch is started if one is not already running
// (stale-while-revalidate). An absent entry blocks on the fetch; concurrent
// callers for the same key share a single fetch.
func (s *Store) GetOrFetch(ctx context.Context, key string, w Windows, fetch FetchFn) Lookup {
	s.mu.Lock()
	now := s.clock.Now()
	if e, ok := s.entries[key]; ok {
		if e.state == StateFresh && now.Before(e.staleAt) {
			lk := Lookup{Value: e.value, Found: true, Hit: true, Refreshing: e.refreshing, UpdatedAt: e.updatedAt, Err: e.err}
			s.mu.Unlock()
			return lk
		}

		// Window expired or explicitly invalidated: serve stale, refetch
		// in the background.
		e.state = StateStale
		if !e.refreshing {
			e.refreshing = true
			gen := s.gens[key]
			bg := context.WithoutCancel(ctx)
			go s.refresh(bg, key, gen, w, fetch)
		}
		lk := Lookup{Value: e.value, Found: true, Hit: true, Refreshing: true, UpdatedAt: e.updatedAt, Err: e.err}
		s.mu.Unlock()
		return lk
	}

	gen := s.gens[key]
	s.mu.Unlock()

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return Lookup{Err: err}
	}

	s.commit(key, gen, v, w)
	return Lookup{Value: v, Found: true, UpdatedAt: s.clock.Now()}
}

// refresh performs one background refetch for a stale entry.
func (s *Store) refresh(ctx context.Context, key string, gen uint64, w Windows, fetch FetchFn) {
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return fetch(ctx)
	})

	if err != nil {
		s.mu.Lock()
		if e, ok := s.entries[key]; ok && s.gens[key] == gen {
			e.err = err
			e.refreshing = false
		}
		s.mu.Unlock()
		s.log.Debug().Str("key", key).Err(err).Msg("background refetch failed")
		return
	}

	if !s.commit(key, gen, v, w) {
		s.log.Debug().Str("key", key).Msg("discarded refetch result for superseded generation")
	}
}

// commit installs a fetched value if the key's generation is still the one
// captured when the fetch started. Returns false when the result was
// discarded.
func (s *Store) commit(key string, gen uint64, v any, w Windows) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[key] != gen {
		if e, ok := s.entries[key]; ok {
			e.refreshing = false
		}
		return false
	}

	now := s.clock.Now()
	s.entries[key] = &entry{
		value:       v,
		state:       StateFresh,
		updatedAt:   now,
		staleAt:     now.Add(w.Stale),
		retainUntil: now.Add(w.Retain),
		windows:     w,
	}
	return true
}

// Populate writes the result of fetch into the store ahead of any read,
// unless a fresh value is already present. Used by prefetching.
func (s *Store) Populate(ctx context.Context, key string, w Windows, fetch FetchFn) error {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.state == StateFresh && s.clock.Now().Before(e.staleAt) {
		s.mu.Unlock()
		return nil
	}
	gen := s.gens[key]
	s.mu.Unlock()

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return err
	}
	s.commit(key, gen, v, w)
	return nil
}

// Set installs a value directly, bypassing any fetch. The key's generation is
// bumped so in-flight fetches for the previous state are discarded.
func (s *Store) Set(key string, v any, w Windows) {
	s.set(key, v, w, false)
}

// SetProvisional installs a value tagged as provisional, i.e. written ahead
// of server confirmation by an optimistic update.
func (s *Store) SetProvisional(key string, v any, w Windows) {
	s.set(key, v, w, true)
}

func (s *Store) set(key string, v any, w Windows, provisional bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[key]++
	now := s.clock.Now()
	s.entries[key] = &entry{
		value:       v,
		state:       StateFresh,
		provisional: provisional,
		updatedAt:   now,
		staleAt:     now.Add(w.Stale),
		retainUntil: now.Add(w.Retain),
		windows:     w,
	}
}

// UpdateMatching applies fn to every entry whose key matches prefix at a
// token boundary. fn returns the replacement value and whether the entry was
// changed. Changed entries keep their freshness but get a new generation.
// The keys of all changed entries are returned.
func (s *Store) UpdateMatching(prefix string, fn func(key string, v any) (any, bool)) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var touched []string
	for key, e := range s.entries {
		if !querykey.MatchPrefix(key, prefix) {
			continue
		}
		next, changed := fn(key, e.value)
		if !changed {
			continue
		}
		e.value = next
		s.gens[key]++
		touched = append(touched, key)
	}
	return touched
}

// MarkStale invalidates every entry under prefix: the entries stay present
// and keep serving their value, but the next read triggers a refetch. Returns
// how many entries were marked.
func (s *Store) MarkStale(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.clock.Now()
	for key, e := range s.entries {
		if !querykey.MatchPrefix(key, prefix) {
			continue
		}
		e.state = StateStale
		e.staleAt = now
		s.gens[key]++
		n++
	}
	return n
}

// Delete removes the entry for key outright. The generation is bumped so a
// late fetch cannot resurrect the removed value.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[key]++
	delete(s.entries, key)
}

// DeleteByPrefix removes every entry under prefix. Returns how many entries
// were removed.
func (s *Store) DeleteByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if !querykey.MatchPrefix(key, prefix) {
			continue
		}
		s.gens[key]++
		delete(s.entries, key)
		n++
	}
	return n
}

// Observe registers an observer of key and returns its release function.
// Entries with at least one observer are never removed by Sweep. The release
// function is idempotent.
func (s *Store) Observe(key string) func() {
	s.mu.Lock()
	s.observers[key]++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if n := s.observers[key]; n <= 1 {
				delete(s.observers, key)
			} else {
				s.observers[key] = n - 1
			}
		})
	}
}

// Sweep removes entries under prefix that have no observers and whose retain
// window has elapsed. It never removes an observed entry, regardless of age.
// Returns how many entries were reclaimed.
func (s *Store) Sweep(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.clock.Now()
	for key, e := range s.entries {
		if !querykey.MatchPrefix(key, prefix) {
			continue
		}
		if s.observers[key] > 0 {
			continue
		}
		if now.Before(e.retainUntil) {
			continue
		}
		delete(s.entries, key)
		n++
	}
	return n
}

// Peek returns a snapshot of the entry for key without touching its
// lifecycle.
func (s *Store) Peek(key string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	state := e.state
	if state == StateFresh && !s.clock.Now().Before(e.staleAt) {
		state = StateStale
	}
	return Snapshot{
		Value:       e.value,
		State:       state,
		Refreshing:  e.refreshing,
		Provisional: e.provisional,
		UpdatedAt:   e.updatedAt,
		Observers:   s.observers[key],
	}, true
}

// Keys returns the rendered keys of every entry under prefix, in no
// particular order.
func (s *Store) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for key := range s.entries {
		if querykey.MatchPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

// Len returns the number of entries currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
