package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

type fakeStats struct {
	Timeframe string
	Revenue   float64
}

func newTestStore() (*entrystore.Store, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	return entrystore.New(entrystore.Config{Clock: clock}), clock
}

func TestQuery_FirstReadFetchesThenHits(t *testing.T) {
	store, _ := newTestStore()
	keys := querykey.NewRegistry("dashboard", nil)

	var calls atomic.Int32
	q := NewQuery(store, keys.Section("stats", "3M"), StatsWindows(), func(ctx context.Context) (fakeStats, error) {
		calls.Add(1)
		return fakeStats{Timeframe: "3M", Revenue: 125000}, nil
	})
	defer q.Close()

	first := q.Read(context.Background())
	if first.Err != nil {
		t.Fatalf("first read failed: %v", first.Err)
	}
	if first.CacheHit || !first.IsLoading || !first.IsFetching {
		t.Errorf("first read flags = %+v", first)
	}
	if first.Data.Revenue != 125000 {
		t.Errorf("Data = %+v", first.Data)
	}

	second := q.Read(context.Background())
	if !second.CacheHit || second.IsFetching || second.IsLoading {
		t.Errorf("second read flags = %+v", second)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch called %d times, want 1", calls.Load())
	}
}

func TestQuery_FetchErrorSurfacesOnErr(t *testing.T) {
	store, _ := newTestStore()
	keys := querykey.NewRegistry("dashboard", nil)

	boom := errors.New("gateway timeout")
	q := NewQuery(store, keys.Section("stats", "1Y"), StatsWindows(), func(ctx context.Context) (fakeStats, error) {
		return fakeStats{}, boom
	})
	defer q.Close()

	res := q.Read(context.Background())
	if !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want %v", res.Err, boom)
	}
	if res.CacheHit {
		t.Errorf("failed first read must not report a cache hit")
	}
}

func TestQuery_ObserverBlocksSweepUntilClose(t *testing.T) {
	store, clock := newTestStore()
	keys := querykey.NewRegistry("dashboard", nil)

	q := NewQuery(store, keys.Section("stats", "3M"), StatsWindows(), func(ctx context.Context) (fakeStats, error) {
		return fakeStats{Timeframe: "3M"}, nil
	})
	q.Read(context.Background())

	clock.Advance(time.Hour)
	if n := store.Sweep(keys.All().String()); n != 0 {
		t.Fatalf("observed entry swept: %d", n)
	}

	q.Close()
	q.Close() // idempotent
	if n := store.Sweep(keys.All().String()); n != 1 {
		t.Errorf("entry not reclaimed after Close, swept %d", n)
	}
}

func TestQuery_TypeMismatchReturnsErrInvalidResultType(t *testing.T) {
	store, _ := newTestStore()
	keys := querykey.NewRegistry("dashboard", nil)
	key := keys.Section("stats", "3M")

	// Another writer populated the same key with a different shape.
	store.Set(key.String(), "not-stats", DefaultWindows().toInternal())

	q := NewQuery(store, key, StatsWindows(), func(ctx context.Context) (fakeStats, error) {
		return fakeStats{}, nil
	})
	defer q.Close()

	res := q.Read(context.Background())
	if !errors.Is(res.Err, ErrInvalidResultType) {
		t.Errorf("Err = %v, want ErrInvalidResultType", res.Err)
	}
}

func TestGetOrFetch_TypedReadThrough(t *testing.T) {
	store, _ := newTestStore()
	keys := querykey.NewRegistry("customers", nil)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (ListPage[string], error) {
		calls.Add(1)
		return ListPage[string]{Items: []string{"acme"}, Total: 1}, nil
	}

	for i := 0; i < 3; i++ {
		page, err := GetOrFetch(context.Background(), store, keys.List(nil), DefaultWindows(), fetch)
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if page.Total != 1 || page.Items[0] != "acme" {
			t.Fatalf("read %d page = %+v", i, page)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch called %d times, want 1", calls.Load())
	}
}
