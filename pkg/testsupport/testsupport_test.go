package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

func TestNewStore_ClockDrivesFreshness(t *testing.T) {
	store, clock := NewStore(t)
	ctx := context.Background()

	win := entrystore.Windows{Stale: 30 * time.Second, Retain: 2 * time.Minute}
	if err := store.Populate(ctx, "t::entry", win, func(ctx context.Context) (any, error) {
		return "v1", nil
	}); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	snap, ok := store.Peek("t::entry")
	if !ok || snap.State != entrystore.StateFresh {
		t.Fatalf("entry state = %v (found %v), want fresh", snap.State, ok)
	}

	clock.Advance(31 * time.Second)
	snap, _ = store.Peek("t::entry")
	if snap.State != entrystore.StateStale {
		t.Fatalf("entry state after advance = %v, want stale", snap.State)
	}
}

func TestSampleStats(t *testing.T) {
	stats := SampleStats("3M")
	if stats.Timeframe != "3M" {
		t.Fatalf("timeframe = %q, want 3M", stats.Timeframe)
	}
	if stats.WonProposals > stats.TotalProposals {
		t.Fatal("won proposals exceed total")
	}
}

func TestCompareWithGoldenJSON(t *testing.T) {
	CompareWithGoldenJSON(t, "sample_stats.json", SampleStats("3M"))
}
