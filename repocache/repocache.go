package repocache

import (
	"context"
	"fmt"
	"reflect"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/orchestrator"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// CachedRepository serves repository reads through the shared cache and
// routes write-triggered invalidation through the orchestrator. It is a
// drop-in replacement for the base repository.
type CachedRepository[T any] struct {
	base repository.Repository[T]
	orch *orchestrator.Orchestrator
}

// New wraps base with caching. The orchestrator supplies the entry store,
// the key registry, and the freshness windows; one orchestrator per entity
// domain.
func New[T any](base repository.Repository[T], orch *orchestrator.Orchestrator) *CachedRepository[T] {
	return &CachedRepository[T]{base: base, orch: orch}
}

func (c *CachedRepository[T]) keys() querykey.Registry { return c.orch.Keys() }

// Get retrieves a single record by criteria through the cache.
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	key := c.keys().Section("get", criteria)
	return cache.GetOrFetch(ctx, c.orch.Store(), key, c.orch.Windows(), func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	})
}

// GetByID retrieves a record by id through the cache. The entry lives under
// the domain's detail prefix so update and delete invalidation reach it.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.keys().Detail(id)
	if len(criteria) > 0 {
		key = c.keys().Section("detail", id, criteria)
	}
	return cache.GetOrFetch(ctx, c.orch.Store(), key, c.orch.Windows(), func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	})
}

// GetByIdentifier retrieves a record by its natural identifier through the
// cache.
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.keys().Section("identifier", identifier)
	if len(criteria) > 0 {
		key = c.keys().Section("identifier", identifier, criteria)
	}
	return cache.GetOrFetch(ctx, c.orch.Store(), key, c.orch.Windows(), func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	})
}

// List retrieves records and their total count through the cache, as one
// entry under the domain's list prefix.
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	key := c.keys().List(criteria)
	page, err := cache.GetOrFetch(ctx, c.orch.Store(), key, c.orch.Windows(), func(ctx context.Context) (cache.ListPage[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return cache.ListPage[T]{Items: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

// Count returns the matching record count through the cache. Counts are
// aggregates, so the entry lives under the stats prefix.
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	key := c.keys().Section("stats", "count", criteria)
	return cache.GetOrFetch(ctx, c.orch.Store(), key, c.orch.Windows(), func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	})
}

// Create inserts a record and invalidates list and stats entries.
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.Create(ctx, record, criteria...)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// CreateTx inserts a record within the caller's transaction. Invalidation
// still runs; marking stale early only costs a refetch.
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.CreateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// CreateMany inserts multiple records.
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// CreateManyTx inserts multiple records within a transaction.
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// GetOrCreate returns the matching record, creating it when absent. The
// create path may have run, so it invalidates like a create.
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// GetOrCreateTx is GetOrCreate within a transaction.
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	if err == nil {
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
	}
	return result, err
}

// Update rewrites a record and invalidates its detail entry plus list and
// stats entries.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecord(ctx, result, orchestrator.ChangeUpdate)
	}
	return result, err
}

// UpdateTx is Update within a transaction.
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecord(ctx, result, orchestrator.ChangeUpdate)
	}
	return result, err
}

// UpdateMany rewrites multiple records, staling each detail entry before one
// list-and-stats invalidation.
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateBulk(ctx, result)
	}
	return result, err
}

// UpdateManyTx is UpdateMany within a transaction.
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateBulk(ctx, result)
	}
	return result, err
}

// Upsert inserts or updates a record; either way its detail entry may exist,
// so it invalidates like an update.
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecord(ctx, result, orchestrator.ChangeUpdate)
	}
	return result, err
}

// UpsertTx is Upsert within a transaction.
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecord(ctx, result, orchestrator.ChangeUpdate)
	}
	return result, err
}

// UpsertMany inserts or updates multiple records.
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateBulk(ctx, result)
	}
	return result, err
}

// UpsertManyTx is UpsertMany within a transaction.
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateBulk(ctx, result)
	}
	return result, err
}

// Delete removes a record; its detail entry is dropped, lists and stats go
// stale.
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.invalidateRecord(ctx, record, orchestrator.ChangeDelete)
	}
	return err
}

// DeleteTx is Delete within a transaction.
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecord(ctx, record, orchestrator.ChangeDelete)
	}
	return err
}

// DeleteMany removes records by criteria. Without the records there is no
// targeted invalidation, so the whole domain subtree goes stale.
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	if err == nil {
		c.invalidateDomain(ctx)
	}
	return err
}

// DeleteManyTx is DeleteMany within a transaction.
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		c.invalidateDomain(ctx)
	}
	return err
}

// DeleteWhere removes records by criteria, invalidating the whole domain
// subtree like DeleteMany.
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		c.invalidateDomain(ctx)
	}
	return err
}

// DeleteWhereTx is DeleteWhere within a transaction.
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		c.invalidateDomain(ctx)
	}
	return err
}

// ForceDelete removes a record bypassing soft delete.
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	err := c.base.ForceDelete(ctx, record)
	if err == nil {
		c.invalidateRecord(ctx, record, orchestrator.ChangeDelete)
	}
	return err
}

// ForceDeleteTx is ForceDelete within a transaction.
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecord(ctx, record, orchestrator.ChangeDelete)
	}
	return err
}

// GetTx reads within a transaction, bypassing the cache.
func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

// GetByIDTx reads by id within a transaction, bypassing the cache.
func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

// GetByIdentifierTx reads by identifier within a transaction, bypassing the
// cache.
func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// ListTx lists within a transaction, bypassing the cache.
func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

// CountTx counts within a transaction, bypassing the cache.
func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

// Raw executes a raw query, bypassing the cache.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw query within a transaction, bypassing the cache.
func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers exposes the base repository's model handlers.
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// invalidate runs the orchestrator policy, then stales the criteria-keyed
// sections the policy does not know about.
func (c *CachedRepository[T]) invalidate(ctx context.Context, scope orchestrator.Scope, change orchestrator.ChangeType) {
	c.orch.Invalidate(ctx, scope, change)
	store := c.orch.Store()
	store.MarkStale(c.keys().Section("get").String())
	store.MarkStale(c.keys().Section("identifier").String())
}

// invalidateRecord resolves the record's id and invalidates it. Records
// without a recognizable id fall back to staling every detail entry.
func (c *CachedRepository[T]) invalidateRecord(ctx context.Context, record T, change orchestrator.ChangeType) {
	id, err := extractID(record)
	if err != nil {
		c.orch.Store().MarkStale(c.keys().Details().String())
		c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
		return
	}
	c.invalidate(ctx, orchestrator.Scope{ID: id}, change)
}

// invalidateBulk stales each record's detail entry, then invalidates lists
// and stats once instead of per record.
func (c *CachedRepository[T]) invalidateBulk(ctx context.Context, records []T) {
	store := c.orch.Store()
	for _, record := range records {
		if id, err := extractID(record); err == nil {
			store.MarkStale(c.keys().Detail(id).String())
		}
	}
	c.invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
}

// invalidateDomain stales the entire domain subtree, for writes where no
// record is available to target.
func (c *CachedRepository[T]) invalidateDomain(ctx context.Context) {
	c.orch.Store().MarkStale(c.keys().All().String())
	// Cross-domain stats coupling still needs the policy pass.
	c.orch.Invalidate(ctx, orchestrator.Scope{}, orchestrator.ChangeCreate)
}

// extractID resolves a record's identifier, preferring the orchestrator's
// Record interface and falling back to reflection over common field names.
func extractID(record any) (string, error) {
	if r, ok := record.(orchestrator.Record); ok {
		return r.RecordID(), nil
	}

	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", fmt.Errorf("repocache: nil record")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", fmt.Errorf("repocache: cannot extract id from %T", record)
	}
	for _, name := range []string{"ID", "Id"} {
		field := v.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface()), nil
		}
	}
	return "", fmt.Errorf("repocache: no id field in %T", record)
}
