package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

// ErrInvalidResultType is returned when a cached value cannot be converted to
// the type the caller requested. It indicates two queries sharing one key,
// which is a programming defect at the call site.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// FetchFn loads the authoritative value for a query from the server boundary.
type FetchFn[T any] func(ctx context.Context) (T, error)

// ListPage is the cached shape of one list query page: the records plus the
// total matching count, cached as a unit.
type ListPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Result is what a Query read yields.
type Result[T any] struct {
	// Data is the served value. Check Err before trusting it on a first
	// read; on refetches stale Data stays populated even when Err is set.
	Data T
	// IsLoading is true when nothing was cached before this read and the
	// read had to fetch synchronously.
	IsLoading bool
	// IsFetching is true whenever any fetch happened or is still in
	// flight for this read, including background revalidation.
	IsFetching bool
	// CacheHit is true when Data was served from the store without a
	// synchronous fetch.
	CacheHit bool
	// Err carries the most recent fetch failure, if any.
	Err error
	// DataUpdatedAt is when Data was last committed to the store.
	DataUpdatedAt time.Time
}

// Query binds a cache key to a typed fetch operation. The first Read
// registers the query as an observer of its entry; Close releases the
// registration. A released entry becomes eligible for memory reclamation.
type Query[T any] struct {
	store *entrystore.Store
	key   querykey.Key
	win   Windows
	fetch FetchFn[T]

	mu       sync.Mutex
	observed bool
	release  func()
}

// NewQuery constructs a typed query over the given store.
func NewQuery[T any](store *entrystore.Store, key querykey.Key, win Windows, fetch FetchFn[T]) *Query[T] {
	return &Query[T]{store: store, key: key, win: win, fetch: fetch}
}

// Key returns the cache key this query is bound to.
func (q *Query[T]) Key() querykey.Key { return q.key }

// Read serves the query, fetching when the entry is absent and revalidating
// in the background when it is stale. Fetch failures are reported on
// Result.Err, never panicked or thrown past this boundary.
func (q *Query[T]) Read(ctx context.Context) Result[T] {
	q.observe()

	lk := q.store.GetOrFetch(ctx, q.key.String(), q.win.toInternal(), func(ctx context.Context) (any, error) {
		return q.fetch(ctx)
	})

	res := Result[T]{
		IsLoading:     !lk.Hit,
		IsFetching:    !lk.Hit || lk.Refreshing,
		CacheHit:      lk.Hit,
		Err:           lk.Err,
		DataUpdatedAt: lk.UpdatedAt,
	}
	if !lk.Found {
		return res
	}

	data, ok := lk.Value.(T)
	if !ok {
		res.Err = fmt.Errorf("%w: key %s holds %T", ErrInvalidResultType, q.key, lk.Value)
		return res
	}
	res.Data = data
	return res
}

// Close releases the query's observer registration. It is safe to call more
// than once.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.release != nil {
		q.release()
		q.release = nil
	}
	q.observed = false
}

func (q *Query[T]) observe() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.observed {
		q.release = q.store.Observe(q.key.String())
		q.observed = true
	}
}

// GetOrFetch is a one-shot typed read-through for callers that do not need a
// long-lived observer, such as repository decorators. The value is cached
// under key with the given windows.
func GetOrFetch[T any](ctx context.Context, store *entrystore.Store, key querykey.Key, win Windows, fetch FetchFn[T]) (T, error) {
	lk := store.GetOrFetch(ctx, key.String(), win.toInternal(), func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	var zero T
	if !lk.Found {
		return zero, lk.Err
	}
	v, ok := lk.Value.(T)
	if !ok {
		if lk.Value == nil {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: key %s holds %T", ErrInvalidResultType, key, lk.Value)
	}
	return v, nil
}
