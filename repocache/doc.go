// Package repocache decorates go-repository-bun repositories with the shared
// stale-while-revalidate cache.
//
// # Overview
//
// CachedRepository wraps a base repository.Repository[T] and intercepts read
// operations, serving them through the entry store with the decorator's
// orchestrator owning invalidation. Write operations pass through to the base
// repository and then run the orchestrator's invalidation policy, so list
// pages, detail entries, and aggregates refetch on their next read instead of
// serving data the write just made stale.
//
// # Key layout
//
// Reads are addressed through the orchestrator's key registry:
//
//	Get              <domain>::get::<criteria>
//	GetByID          <domain>::detail::<id>[::<criteria>]
//	GetByIdentifier  <domain>::identifier::<identifier>[::<criteria>]
//	List             <domain>::list::<criteria>
//	Count            <domain>::stats::count::<criteria>
//
// Counts live under the stats prefix because they are aggregates: any write
// changes them, and the invalidation policy already marks stats on every
// change type. Criteria are serialized by pointer identity, which is stable
// within a process; two call sites passing distinct closures cache
// separately even when the closures are equivalent.
//
// # Pass-through operations
//
// Transaction reads (*Tx), Raw queries, and Handlers bypass the cache
// entirely. A transaction must observe its own uncommitted writes, and a
// cached read inside one would not.
//
// # Criteria-only writes
//
// DeleteMany and DeleteWhere receive criteria instead of records, so no
// targeted invalidation is possible. They mark the whole domain subtree
// stale.
package repocache
