// Package querykey builds the canonical cache keys for every addressable
// dashboard query.
//
// # Overview
//
// Keys are ordered token sequences joined by "::". The first token is always
// the domain ("dashboard", "customers"), followed by a sub-resource token
// ("list", "detail", "stats", ...) and serialized discriminators. Because the
// namespace is hierarchical, invalidation can target a single leaf query or a
// whole subtree:
//
//	customers                      -> every customer query
//	customers::list                -> every customer list page
//	customers::detail::customer-42 -> one detail entry
//
// # Determinism
//
// Two logically identical requests must produce byte-identical keys, and two
// different requests must never collide. The default serializer guarantees
// this by sorting map keys, walking struct fields in declaration order,
// dereferencing pointers, and normalizing nil optionals to a fixed token.
// Discriminator segments that grow past a length cap are replaced by an
// xxhash digest so keys stay bounded without losing uniqueness in practice.
//
// # Registry
//
// A Registry scopes key construction to one domain:
//
//	keys := querykey.NewRegistry("customers", nil)
//	keys.Detail("customer-42")      // customers::detail::customer-42
//	keys.List(ListParams{Limit: 20})
//	keys.Section("stats", "3M")
//
// Key construction is pure and has no failure mode; a malformed discriminator
// is a programming defect at the call site, not a runtime condition.
package querykey
