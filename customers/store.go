package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/orchestrator"
)

// ErrNotFound is returned when no customer exists for the requested id.
var ErrNotFound = errors.New("customers: not found")

// Activity is one row of the customer activity log. Every write appends one
// in the same transaction as the write itself.
type Activity struct {
	bun.BaseModel `bun:"table:customer_activities,alias:ca"`

	ID         int64     `bun:",pk,autoincrement"`
	CustomerID string    `bun:",notnull"`
	Action     string    `bun:",notnull"`
	Detail     string    `bun:""`
	CreatedAt  time.Time `bun:",nullzero"`
}

// OutboxEvent is a pending integration event written transactionally with
// the change it describes. A relay publishes and marks rows outside this
// package.
type OutboxEvent struct {
	bun.BaseModel `bun:"table:outbox_events,alias:oe"`

	ID          string     `bun:",pk"`
	Topic       string     `bun:",notnull"`
	Payload     []byte     `bun:",notnull"`
	CreatedAt   time.Time  `bun:",nullzero"`
	PublishedAt *time.Time `bun:",nullzero"`
}

// outboxPayload is the msgpack-encoded body of an OutboxEvent.
type outboxPayload struct {
	Action     string    `msgpack:"action"`
	CustomerID string    `msgpack:"customerId"`
	Name       string    `msgpack:"name"`
	OccurredAt time.Time `msgpack:"occurredAt"`
}

// DecodeOutboxPayload decodes an outbox event body; used by the relay and by
// tests.
func DecodeOutboxPayload(data []byte) (action, customerID string, err error) {
	var p outboxPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return "", "", fmt.Errorf("customers: decode outbox payload: %w", err)
	}
	return p.Action, p.CustomerID, nil
}

// Store persists customers with bun and keeps the cache coherent: every
// committed write runs the orchestrator's invalidation policy for its change
// type. Reads implement the Reader interface the typed queries fetch
// through.
type Store struct {
	db   *bun.DB
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

// NewStore wires a customer store over db. The orchestrator may be nil when
// cache coherence is handled elsewhere (e.g. in bulk import jobs).
func NewStore(db *bun.DB, orch *orchestrator.Orchestrator, log zerolog.Logger) *Store {
	return &Store{db: db, orch: orch, log: log}
}

var _ Reader = (*Store)(nil)

// Migrate creates the backing tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range []any{(*Customer)(nil), (*Activity)(nil), (*OutboxEvent)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("customers: create table for %T: %w", model, err)
		}
	}
	return nil
}

// Create inserts a customer together with its activity-log row and outbox
// event, then invalidates list and stats caches.
func (s *Store) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(c).Exec(ctx); err != nil {
			return err
		}
		return s.appendSideEffects(ctx, tx, c, "customer.created")
	})
	if err != nil {
		return fmt.Errorf("customers: create %s: %w", c.ID, err)
	}

	s.log.Debug().Str("id", c.ID).Msg("customer created")
	s.invalidate(ctx, c.ID, orchestrator.ChangeCreate)
	return nil
}

// Update rewrites a customer in the same three-step transaction, then
// invalidates the detail entry plus list and stats caches.
func (s *Store) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(c).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return s.appendSideEffects(ctx, tx, c, "customer.updated")
	})
	if err != nil {
		return fmt.Errorf("customers: update %s: %w", c.ID, err)
	}

	s.invalidate(ctx, c.ID, orchestrator.ChangeUpdate)
	return nil
}

// Delete removes a customer, logging and emitting like the other writes,
// then drops the detail cache entry and invalidates list and stats caches.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*Customer)(nil)).Where("c.id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return s.appendSideEffects(ctx, tx, &Customer{ID: id}, "customer.deleted")
	})
	if err != nil {
		return fmt.Errorf("customers: delete %s: %w", id, err)
	}

	s.invalidate(ctx, id, orchestrator.ChangeDelete)
	return nil
}

// ListCustomers implements Reader.
func (s *Store) ListCustomers(ctx context.Context, p ListParams) (cache.ListPage[Customer], error) {
	p = p.withDefaults()

	var items []Customer
	q := s.db.NewSelect().Model(&items).Order("c.name ASC").Limit(p.Limit)
	if p.Search != "" {
		q = q.Where("c.name LIKE ?", "%"+p.Search+"%")
	}
	if p.Tier != "" {
		q = q.Where("c.tier = ?", p.Tier)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return cache.ListPage[Customer]{}, fmt.Errorf("customers: list: %w", err)
	}
	return cache.ListPage[Customer]{Items: items, Total: total}, nil
}

// GetCustomer implements Reader.
func (s *Store) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := s.db.NewSelect().Model(&c).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("customers: get %s: %w", id, err)
	}
	return c, nil
}

// appendSideEffects writes the activity-log row and the outbox event inside
// the caller's transaction.
func (s *Store) appendSideEffects(ctx context.Context, tx bun.Tx, c *Customer, action string) error {
	now := time.Now().UTC()

	activity := &Activity{
		CustomerID: c.ID,
		Action:     action,
		Detail:     c.Name,
		CreatedAt:  now,
	}
	if _, err := tx.NewInsert().Model(activity).Exec(ctx); err != nil {
		return err
	}

	payload, err := msgpack.Marshal(outboxPayload{
		Action:     action,
		CustomerID: c.ID,
		Name:       c.Name,
		OccurredAt: now,
	})
	if err != nil {
		return err
	}
	event := &OutboxEvent{
		ID:        uuid.NewString(),
		Topic:     action,
		Payload:   payload,
		CreatedAt: now,
	}
	_, err = tx.NewInsert().Model(event).Exec(ctx)
	return err
}

func (s *Store) invalidate(ctx context.Context, id string, change orchestrator.ChangeType) {
	if s.orch == nil {
		return
	}
	s.orch.Invalidate(ctx, orchestrator.Scope{ID: id}, change)
}
