// Package testsupport provides helpers shared by the package tests: a
// fake-clock entry store, sample dashboard payloads, and golden-file
// utilities for comparing serialized output.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/posalpro/go-dashboard-cache/dashboard"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

// Epoch is the fixed instant test clocks start at.
var Epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// NewStore returns an entry store driven by a fake clock at Epoch. Advance
// the returned clock to move entries through their freshness windows.
func NewStore(t *testing.T) (*entrystore.Store, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(Epoch)
	store := entrystore.New(entrystore.Config{Clock: clock, Logger: zerolog.Nop()})
	return store, clock
}

// SampleStats returns a plausible dashboard aggregate for the timeframe.
func SampleStats(timeframe string) dashboard.DashboardStats {
	return dashboard.DashboardStats{
		Timeframe:        timeframe,
		TotalProposals:   128,
		ActiveProposals:  37,
		WonProposals:     41,
		TotalCustomers:   63,
		TotalRevenue:     3_200_000,
		WinRate:          0.32,
		AvgCycleTimeDays: 18.5,
	}
}

// SampleRevenue returns a plausible revenue comparison.
func SampleRevenue() dashboard.RevenueMetrics {
	return dashboard.RevenueMetrics{
		Current:  3_200_000,
		Previous: 2_850_000,
		Growth:   12.3,
	}
}

// LoadFixture reads test data from a file under the package's testdata
// directory.
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("load fixture %s: %v", filename, err)
	}
	return data
}

// LoadFixtureJSON reads and unmarshals a JSON fixture.
func LoadFixtureJSON(t *testing.T, filename string, dest any) {
	t.Helper()
	if err := json.Unmarshal(LoadFixture(t, filename), dest); err != nil {
		t.Fatalf("unmarshal fixture %s: %v", filename, err)
	}
}

// CompareWithGolden compares actual against the named golden file under
// testdata/golden, creating the file on first run.
func CompareWithGolden(t *testing.T, filename string, actual []byte) {
	t.Helper()
	path := filepath.Join("testdata", "golden", filename)

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("golden file %s does not exist, creating it", path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			t.Fatalf("write golden file %s: %v", path, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nexpected:\n%s\nactual:\n%s", path, expected, actual)
	}
}

// CompareWithGoldenJSON marshals actual with indentation and compares it
// against the named golden file.
func CompareWithGoldenJSON(t *testing.T, filename string, actual any) {
	t.Helper()
	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		t.Fatalf("marshal for golden file %s: %v", filename, err)
	}
	CompareWithGolden(t, filename, append(data, '\n'))
}
