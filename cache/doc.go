// Package cache is the public surface of the dashboard data-orchestration
// layer: freshness windows, the typed Query accessor, and the read-through
// helpers shared by every feature package.
//
// # Overview
//
//   - Windows: per-entry freshness policy (stale window + retain window)
//   - Query[T]: a typed data fetch accessor with stale-while-revalidate
//     semantics and automatic observer registration
//   - GetOrFetch: one-shot typed read-through for callers that do not need
//     observer tracking (repository decorators, background jobs)
//
// The underlying store is always passed in explicitly. Nothing in this
// package holds ambient global state, so tests instantiate one isolated
// store per case.
//
// # Reading through a Query
//
//	store := entrystore.New(entrystore.Config{})
//	keys := querykey.NewRegistry("dashboard", nil)
//
//	q := cache.NewQuery(store, keys.Section("stats", "3M"), cache.StatsWindows(),
//		func(ctx context.Context) (DashboardStats, error) {
//			return client.DashboardStats(ctx, params)
//		})
//	defer q.Close()
//
//	res := q.Read(ctx)
//	if res.Err != nil { ... }
//
// A fresh entry is served without any fetch. A stale entry is served
// immediately while a background refetch runs; the refetched value shows up
// on the next Read. Fetch failures are surfaced on Result.Err and never
// escape as panics; previously cached data keeps being served.
//
// # Freshness windows
//
// DefaultWindows (30s stale / 120s retain) applies to entity queries.
// StatsWindows (60s / 300s) applies to aggregated statistics, which mutate
// far less often and so can be retained longer.
package cache
