package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

// Windows is the freshness policy applied to one cache entry. Stale is how
// long a committed value is served without refetching; Retain is how long a
// zero-observer entry survives a memory-optimization sweep.
type Windows struct {
	Stale  time.Duration
	Retain time.Duration
}

// DefaultWindows returns the policy for entity queries: 30s stale, 120s
// retain.
func DefaultWindows() Windows {
	return Windows{Stale: 30 * time.Second, Retain: 120 * time.Second}
}

// StatsWindows returns the policy for aggregated statistics: 60s stale, 300s
// retain. Stats mutate less often than entities, so they are kept longer.
func StatsWindows() Windows {
	return Windows{Stale: 60 * time.Second, Retain: 300 * time.Second}
}

// Validate checks the window values. Retain must cover at least the stale
// window, otherwise entries could be reclaimed while still considered fresh.
func (w Windows) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Stale, validation.Required, validation.Min(time.Second)),
		validation.Field(&w.Retain, validation.Required, validation.Min(w.Stale)),
	)
}

func (w Windows) toInternal() entrystore.Windows {
	return entrystore.Windows{Stale: w.Stale, Retain: w.Retain}
}
