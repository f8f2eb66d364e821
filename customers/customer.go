// Package customers implements the customer feature over the shared cache:
// typed list/detail queries, optimistic creates through the orchestrator, and
// a transactional store that pairs every write with an activity-log row and
// an outbox event.
package customers

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/uptrace/bun"
)

// Domain is the key namespace for every customer query.
const Domain = "customers"

// Customer is the customer record as stored and cached.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c" json:"-"`

	ID            string    `bun:",pk" json:"id"`
	Name          string    `bun:",notnull" json:"name"`
	Email         string    `json:"email"`
	Industry      string    `json:"industry"`
	Tier          string    `json:"tier"`
	AnnualRevenue float64   `json:"annualRevenue"`
	CreatedAt     time.Time `bun:",nullzero" json:"createdAt"`
	UpdatedAt     time.Time `bun:",nullzero" json:"updatedAt"`
}

// RecordID implements orchestrator.Record.
func (c Customer) RecordID() string { return c.ID }

// AssignID returns a copy of c with the given identifier, used by the
// optimistic insert path to stamp temporary ids.
func AssignID(c Customer, id string) Customer {
	c.ID = id
	return c
}

// Validate checks the fields a customer must carry before any write.
func (c Customer) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, is.Email),
		validation.Field(&c.Tier, validation.In("", "standard", "premium", "enterprise")),
		validation.Field(&c.AnnualRevenue, validation.Min(0.0)),
	)
}
