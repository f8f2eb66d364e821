package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

func TestInsert_WritesProvisionalDetailAndPatchesLists(t *testing.T) {
	f := newFixture(t)
	f.seed()
	ctx := context.Background()

	pending, err := Insert(ctx, f.orch, testCustomer{Name: "Initech"}, assignID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pending.TempID, TempIDPrefix))

	snap, ok := f.store.Peek(f.keys.Detail(pending.TempID).String())
	require.True(t, ok, "provisional detail entry missing")
	assert.True(t, snap.Provisional, "detail entry must be tagged provisional")
	assert.Equal(t, "Initech", snap.Value.(testCustomer).Name)

	listSnap, _ := f.store.Peek(f.keys.List("page-1").String())
	page := listSnap.Value.(cache.ListPage[testCustomer])
	require.Len(t, page.Items, 3)
	assert.Equal(t, pending.TempID, page.Items[0].ID, "provisional record is prepended")
	assert.Equal(t, 3, page.Total)
	assert.True(t, f.rec.seen(EventOptimisticSet))
}

func TestRollback_LeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.seed()
	ctx := context.Background()

	pending, err := Insert(ctx, f.orch, testCustomer{Name: "Initech"}, assignID)
	require.NoError(t, err)

	// Authoritative write failed: roll everything back.
	pending.Rollback(ctx)
	pending.Rollback(ctx) // resolving twice is a no-op

	_, ok := f.store.Peek(f.keys.Detail(pending.TempID).String())
	assert.False(t, ok, "provisional detail entry must be removed")

	listSnap, ok := f.store.Peek(f.keys.List("page-1").String())
	require.True(t, ok)
	page := listSnap.Value.(cache.ListPage[testCustomer])
	assert.Len(t, page.Items, 2, "list must be restored")
	assert.Equal(t, 2, page.Total)
	for _, item := range page.Items {
		assert.False(t, strings.HasPrefix(item.ID, TempIDPrefix), "no provisional record may remain")
	}
	assert.True(t, f.rec.seen(EventRollback))
}

func TestReconcile_SwapsInAuthoritativeRecord(t *testing.T) {
	f := newFixture(t)
	f.seed()
	ctx := context.Background()

	pending, err := Insert(ctx, f.orch, testCustomer{Name: "Initech"}, assignID)
	require.NoError(t, err)

	final := testCustomer{ID: "customer-99", Name: "Initech"}
	pending.Reconcile(ctx, final)

	_, ok := f.store.Peek(f.keys.Detail(pending.TempID).String())
	assert.False(t, ok, "temp detail entry must be gone")

	snap, ok := f.store.Peek(f.keys.Detail("customer-99").String())
	require.True(t, ok, "authoritative detail entry missing")
	assert.False(t, snap.Provisional)

	listSnap, _ := f.store.Peek(f.keys.List("page-1").String())
	page := listSnap.Value.(cache.ListPage[testCustomer])
	require.Len(t, page.Items, 3)
	assert.Equal(t, "customer-99", page.Items[0].ID)

	// Reconciliation counts as a create: lists and stats go stale so the
	// next read refetches real server state.
	assert.Equal(t, entrystore.StateStale, state(t, f.store, f.keys.List("page-1")))
	assert.True(t, f.rec.seen(EventReconcile))
}

func TestInsert_AssignMustApplyTempID(t *testing.T) {
	f := newFixture(t)

	_, err := Insert(context.Background(), f.orch, testCustomer{Name: "Initech"},
		func(c testCustomer, id string) testCustomer { return c })
	require.Error(t, err)
}
