package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

// TempIDPrefix marks identifiers assigned to records that have not been
// confirmed by the server yet.
const TempIDPrefix = "temp-"

// Record is the constraint for optimistic inserts: the orchestrator needs to
// read an entity's identifier to place it in detail entries and to find it
// again in cached list pages.
type Record interface {
	RecordID() string
}

// Pending tracks one optimistic insert until it is reconciled or rolled
// back. Exactly one of Reconcile or Rollback must be called once the
// authoritative write settles; a Pending left unresolved leaves a provisional
// record orphaned in the cache.
type Pending[T Record] struct {
	// TempID is the provisional identifier assigned to the record.
	TempID string

	o    *Orchestrator
	rec  T
	done bool
}

// Insert writes rec into the cache ahead of server confirmation. The record
// gets a temporary identifier via assign, its detail entry is written tagged
// provisional, and it is prepended to every cached list page of the domain.
//
// Go methods cannot carry extra type parameters, so this is a package-level
// function; the orchestrator itself stays untyped.
func Insert[T Record](ctx context.Context, o *Orchestrator, rec T, assign func(T, string) T) (*Pending[T], error) {
	tempID := TempIDPrefix + uuid.NewString()
	provisional := assign(rec, tempID)
	if got := provisional.RecordID(); got != tempID {
		return nil, fmt.Errorf("orchestrator: assign did not apply temp id (got %q)", got)
	}

	o.store.SetProvisional(o.keys.Detail(tempID).String(), provisional, entrystore.Windows(o.win))

	touched := o.store.UpdateMatching(o.keys.Lists().String(), func(key string, v any) (any, bool) {
		page, ok := v.(cache.ListPage[T])
		if !ok {
			return v, false
		}
		items := make([]T, 0, len(page.Items)+1)
		items = append(items, provisional)
		items = append(items, page.Items...)
		return cache.ListPage[T]{Items: items, Total: page.Total + 1}, true
	})

	o.rec.Record(EventOptimisticSet, map[string]any{
		"domain":  o.keys.Domain(),
		"temp_id": tempID,
		"lists":   len(touched),
	})

	return &Pending[T]{TempID: tempID, o: o, rec: provisional}, nil
}

// Reconcile replaces the provisional record with the authoritative one
// returned by the server, then invalidates the domain as a create so list
// pages and aggregates refetch real data.
func (p *Pending[T]) Reconcile(ctx context.Context, final T) {
	if p.done {
		return
	}
	p.done = true
	o := p.o

	o.store.Delete(o.keys.Detail(p.TempID).String())
	o.store.Set(o.keys.Detail(final.RecordID()).String(), final, entrystore.Windows(o.win))
	replaceInLists(o, p.TempID, func(items []T, i int) []T {
		items[i] = final
		return items
	})

	o.rec.Record(EventReconcile, map[string]any{
		"domain":  o.keys.Domain(),
		"temp_id": p.TempID,
		"id":      final.RecordID(),
	})
	o.Invalidate(ctx, Scope{ID: final.RecordID()}, ChangeCreate)
}

// Rollback removes every trace of the provisional record after the
// authoritative write failed. Detail entry and list placements are all
// reverted; nothing provisional is left behind.
func (p *Pending[T]) Rollback(ctx context.Context) {
	if p.done {
		return
	}
	p.done = true
	o := p.o

	o.store.Delete(o.keys.Detail(p.TempID).String())
	replaceInLists(o, p.TempID, func(items []T, i int) []T {
		return append(items[:i], items[i+1:]...)
	})

	o.log.Debug().Str("domain", o.keys.Domain()).Str("temp_id", p.TempID).Msg("optimistic insert rolled back")
	o.rec.Record(EventRollback, map[string]any{"domain": o.keys.Domain(), "temp_id": p.TempID})
}

// replaceInLists rewrites every cached list page containing tempID. The
// patch function receives the copied items slice and the match index.
func replaceInLists[T Record](o *Orchestrator, tempID string, patch func(items []T, i int) []T) {
	o.store.UpdateMatching(o.keys.Lists().String(), func(key string, v any) (any, bool) {
		page, ok := v.(cache.ListPage[T])
		if !ok {
			return v, false
		}
		for i, item := range page.Items {
			if item.RecordID() != tempID {
				continue
			}
			items := append([]T(nil), page.Items...)
			items = patch(items, i)
			total := page.Total
			if len(items) < len(page.Items) {
				total--
			}
			return cache.ListPage[T]{Items: items, Total: total}, true
		}
		return v, false
	})
}

