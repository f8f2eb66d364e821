// Package orchestrator layers cache policy on top of the shared entry store:
// prefetching, optimistic writes, invalidation, and memory reclamation.
//
// # Ownership
//
// The orchestrator exclusively owns entry lifecycle. Data fetch queries only
// read and request; the one narrow exception is the optimistic-insert path,
// which writes provisional entries that must later be reconciled or rolled
// back (see Insert).
//
// # Invalidation policy
//
// Invalidate applies a three-way policy keyed on the change type:
//
//	create: list and stats subtrees are marked stale
//	update: the entity's detail key is marked stale, plus list and stats
//	delete: the detail entry is removed outright, plus list and stats stale
//
// Marked entries keep serving their current value until the next read
// triggers a refetch; removed entries are gone immediately. Under- or
// over-shooting this table either serves stale reads or causes redundant
// fetches, so it is reproduced exactly wherever mutations are reported.
package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

// ChangeType classifies the mutation that triggered an invalidation.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Scope identifies what changed within the orchestrator's domain.
type Scope struct {
	// ID is the entity identifier for update/delete changes. Ignored for
	// creates.
	ID string
}

// Orchestrator owns cache policy for one domain registry.
type Orchestrator struct {
	store *entrystore.Store
	keys  querykey.Registry
	win   cache.Windows

	// statsPrefixes are the extra subtrees invalidated alongside the
	// domain's own stats, e.g. the dashboard aggregates that a customer
	// mutation makes stale.
	statsPrefixes []querykey.Key

	log zerolog.Logger
	rec Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWindows overrides the default freshness windows used by prefetch and
// optimistic writes.
func WithWindows(w cache.Windows) Option {
	return func(o *Orchestrator) { o.win = w }
}

// WithLogger sets the logger. The default logger is disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithTelemetry sets the telemetry sink. The default sink discards events.
func WithTelemetry(rec Recorder) Option {
	return func(o *Orchestrator) { o.rec = rec }
}

// WithStatsPrefixes declares additional subtrees to invalidate whenever this
// domain mutates, on top of the domain's own stats prefix.
func WithStatsPrefixes(keys ...querykey.Key) Option {
	return func(o *Orchestrator) { o.statsPrefixes = append(o.statsPrefixes, keys...) }
}

// New constructs an orchestrator over store, scoped to the given registry.
func New(store *entrystore.Store, keys querykey.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: store,
		keys:  keys,
		win:   cache.DefaultWindows(),
		log:   zerolog.Nop(),
		rec:   NopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store exposes the underlying entry store for query construction.
func (o *Orchestrator) Store() *entrystore.Store { return o.store }

// Keys exposes the domain registry this orchestrator is scoped to.
func (o *Orchestrator) Keys() querykey.Registry { return o.keys }

// Windows returns the default freshness windows of the domain.
func (o *Orchestrator) Windows() cache.Windows { return o.win }

// Prefetch populates the entry for key ahead of any read, using the given
// freshness windows. It returns immediately; the fetch runs in the
// background, and a failure is logged and recorded but never surfaced. A
// still-fresh entry short-circuits without fetching.
func (o *Orchestrator) Prefetch(ctx context.Context, key querykey.Key, win cache.Windows, fetch entrystore.FetchFn) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := o.store.Populate(bg, key.String(), entrystore.Windows(win), fetch); err != nil {
			o.log.Warn().Str("key", key.String()).Err(err).Msg("prefetch failed")
			o.rec.Record(EventPrefetchFailed, map[string]any{"key": key.String(), "error": err.Error()})
			return
		}
		o.rec.Record(EventPrefetch, map[string]any{"key": key.String()})
	}()
}

// Invalidate applies the three-way invalidation policy for a mutation of the
// orchestrator's domain.
func (o *Orchestrator) Invalidate(ctx context.Context, scope Scope, change ChangeType) {
	marked := 0
	removed := 0

	switch change {
	case ChangeCreate:
		// New entities affect pagination and aggregates, not any
		// existing detail entry.
	case ChangeUpdate:
		marked += o.store.MarkStale(o.keys.Detail(scope.ID).String())
	case ChangeDelete:
		removed += o.store.DeleteByPrefix(o.keys.Detail(scope.ID).String())
	default:
		o.log.Error().Str("change", string(change)).Msg("unknown change type, invalidating domain subtree")
		marked += o.store.MarkStale(o.keys.All().String())
	}

	marked += o.store.MarkStale(o.keys.Lists().String())
	marked += o.store.MarkStale(o.keys.Stats().String())
	for _, p := range o.statsPrefixes {
		marked += o.store.MarkStale(p.String())
	}

	o.log.Debug().
		Str("domain", o.keys.Domain()).
		Str("change", string(change)).
		Str("id", scope.ID).
		Int("marked", marked).
		Int("removed", removed).
		Msg("cache invalidated")
	o.rec.Record(EventInvalidate, map[string]any{
		"domain":  o.keys.Domain(),
		"change":  string(change),
		"id":      scope.ID,
		"marked":  marked,
		"removed": removed,
	})
}

// OptimizeMemory reclaims entries of the orchestrator's domain that have no
// active observers and whose retain window has elapsed. It never removes an
// observed entry and runs only when explicitly invoked; there is no
// background eviction.
func (o *Orchestrator) OptimizeMemory(ctx context.Context) int {
	n := o.store.Sweep(o.keys.All().String())
	o.log.Debug().Str("domain", o.keys.Domain()).Int("reclaimed", n).Msg("memory optimized")
	o.rec.Record(EventSweep, map[string]any{"domain": o.keys.Domain(), "reclaimed": n})
	return n
}
