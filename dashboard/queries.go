package dashboard

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

// Domain is the key namespace for every dashboard query.
const Domain = "dashboard"

// Keys returns the dashboard key registry.
func Keys() querykey.Registry {
	return querykey.NewRegistry(Domain, nil)
}

// Client is the server boundary the dashboard queries fetch from. It is
// implemented by the upstream HTTP client; tests supply fakes.
type Client interface {
	DashboardStats(ctx context.Context, p StatsParams) (DashboardStats, error)
	EnhancedStats(ctx context.Context, p StatsParams) (EnhancedDashboardStats, error)
	ExecutiveDashboard(ctx context.Context, p ExecutiveParams) (ExecutiveDashboardResponse, error)
	UnifiedView(ctx context.Context, p UnifiedParams) (UnifiedView, error)
}

// StatsParams discriminates the stats queries.
type StatsParams struct {
	Timeframe       string `json:"timeframe"`
	IncludeArchived bool   `json:"includeArchived"`
}

func (p StatsParams) withDefaults() StatsParams {
	if p.Timeframe == "" {
		p.Timeframe = Timeframe3M
	}
	return p
}

// Validate checks the parameter values.
func (p StatsParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timeframe, validation.Required, validation.In(Timeframe3M, Timeframe6M, Timeframe1Y)),
	)
}

// ExecutiveParams discriminates the executive view.
type ExecutiveParams struct {
	Timeframe string `json:"timeframe"`
}

func (p ExecutiveParams) withDefaults() ExecutiveParams {
	if p.Timeframe == "" {
		p.Timeframe = Timeframe6M
	}
	return p
}

// Validate checks the parameter values.
func (p ExecutiveParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timeframe, validation.Required, validation.In(Timeframe3M, Timeframe6M, Timeframe1Y)),
	)
}

// UnifiedParams discriminates the unified cross-entity view.
type UnifiedParams struct {
	Timeframe string `json:"timeframe"`
	Sections  []string
}

func (p UnifiedParams) withDefaults() UnifiedParams {
	if p.Timeframe == "" {
		p.Timeframe = Timeframe3M
	}
	return p
}

// Validate checks the parameter values.
func (p UnifiedParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timeframe, validation.Required, validation.In(Timeframe3M, Timeframe6M, Timeframe1Y)),
		validation.Field(&p.Sections, validation.Each(validation.In("proposals", "customers", "stats"))),
	)
}

// NewStatsQuery builds the typed accessor for the base dashboard stats.
func NewStatsQuery(store *entrystore.Store, client Client, p StatsParams) (*cache.Query[DashboardStats], error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Keys().Section("stats", p)
	return cache.NewQuery(store, key, cache.StatsWindows(), func(ctx context.Context) (DashboardStats, error) {
		return client.DashboardStats(ctx, p)
	}), nil
}

// NewEnhancedStatsQuery builds the accessor for stats with growth deltas.
func NewEnhancedStatsQuery(store *entrystore.Store, client Client, p StatsParams) (*cache.Query[EnhancedDashboardStats], error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Keys().Section("stats-enhanced", p)
	return cache.NewQuery(store, key, cache.StatsWindows(), func(ctx context.Context) (EnhancedDashboardStats, error) {
		return client.EnhancedStats(ctx, p)
	}), nil
}

// NewExecutiveQuery builds the accessor for the executive view.
func NewExecutiveQuery(store *entrystore.Store, client Client, p ExecutiveParams) (*cache.Query[ExecutiveDashboardResponse], error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Keys().Section("executive", p)
	return cache.NewQuery(store, key, cache.StatsWindows(), func(ctx context.Context) (ExecutiveDashboardResponse, error) {
		return client.ExecutiveDashboard(ctx, p)
	}), nil
}

// NewUnifiedQuery builds the accessor for the unified cross-entity view.
func NewUnifiedQuery(store *entrystore.Store, client Client, p UnifiedParams) (*cache.Query[UnifiedView], error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Keys().Section("unified", p)
	return cache.NewQuery(store, key, cache.StatsWindows(), func(ctx context.Context) (UnifiedView, error) {
		return client.UnifiedView(ctx, p)
	}), nil
}
