package customers

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

// Keys returns the customer key registry.
func Keys() querykey.Registry {
	return querykey.NewRegistry(Domain, nil)
}

// Reader is the read side of the customer store the queries fetch through.
type Reader interface {
	ListCustomers(ctx context.Context, p ListParams) (cache.ListPage[Customer], error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
}

// ListParams discriminates customer list pages.
type ListParams struct {
	Search string `json:"search"`
	Tier   string `json:"tier"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

func (p ListParams) withDefaults() ListParams {
	if p.Limit == 0 {
		p.Limit = 20
	}
	return p
}

// Validate checks the parameter values.
func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Limit, validation.Min(1), validation.Max(100)),
		validation.Field(&p.Tier, validation.In("", "standard", "premium", "enterprise")),
	)
}

// NewListQuery builds the typed accessor for one customer list page.
func NewListQuery(store *entrystore.Store, reader Reader, p ListParams) (*cache.Query[cache.ListPage[Customer]], error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Keys().List(p)
	return cache.NewQuery(store, key, cache.DefaultWindows(), func(ctx context.Context) (cache.ListPage[Customer], error) {
		return reader.ListCustomers(ctx, p)
	}), nil
}

// NewDetailQuery builds the typed accessor for one customer detail entry.
func NewDetailQuery(store *entrystore.Store, reader Reader, id string) *cache.Query[Customer] {
	key := Keys().Detail(id)
	return cache.NewQuery(store, key, cache.DefaultWindows(), func(ctx context.Context) (Customer, error) {
		return reader.GetCustomer(ctx, id)
	})
}
