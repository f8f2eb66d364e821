package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/posalpro/go-dashboard-cache/dashboard"
	"github.com/posalpro/go-dashboard-cache/querykey"
)

// CoalesceConfig configures the transport-level request cache that sits in
// front of the stats endpoints. It deduplicates concurrent identical calls
// and refreshes hot entries before they expire, independent of the
// orchestration layer's own freshness windows above it.
type CoalesceConfig struct {
	// Capacity is the maximum number of cached responses. Must be > 0.
	Capacity int

	// NumShards controls shard fan-out for concurrent access. Must be > 0.
	NumShards int

	// TTL is how long one response is reused. Keep it at or below the
	// stats stale window so the transport cache never outlives the
	// orchestration entry it feeds.
	TTL time.Duration

	// EvictionPercentage is what share of entries to drop when the cache
	// is full, 1-100.
	EvictionPercentage int

	// EarlyRefresh enables background refreshes of frequently used
	// responses before their TTL expires. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig
}

// EarlyRefreshConfig mirrors the sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultCoalesceConfig returns the settings used in production.
func DefaultCoalesceConfig() CoalesceConfig {
	return CoalesceConfig{
		Capacity:           1000,
		NumShards:          64,
		TTL:                30 * time.Second,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     25 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
	}
}

// Validate checks the configuration values.
func (c CoalesceConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("upstream: coalesce capacity must be greater than 0")
	}
	if c.NumShards <= 0 {
		return fmt.Errorf("upstream: coalesce shard count must be greater than 0")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("upstream: coalesce TTL must be greater than 0")
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return fmt.Errorf("upstream: eviction percentage must be between 1 and 100")
	}
	return nil
}

func (c CoalesceConfig) options() []sturdyc.Option {
	var opts []sturdyc.Option
	if c.EarlyRefresh != nil {
		opts = append(opts, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	return opts
}

// Coalesced decorates a dashboard client with a sturdyc response cache.
type Coalesced struct {
	inner dashboard.Client
	cache *sturdyc.Client[any]
	ser   querykey.Serializer
}

// NewCoalesced wraps inner with request coalescing per CoalesceConfig.
func NewCoalesced(inner dashboard.Client, cfg CoalesceConfig) (*Coalesced, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[any](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, cfg.options()...)
	return &Coalesced{inner: inner, cache: client, ser: querykey.NewDefaultSerializer()}, nil
}

var _ dashboard.Client = (*Coalesced)(nil)

// DashboardStats implements dashboard.Client with coalescing.
func (c *Coalesced) DashboardStats(ctx context.Context, p dashboard.StatsParams) (dashboard.DashboardStats, error) {
	return coalesced[dashboard.DashboardStats](ctx, c, "stats", p, func(ctx context.Context) (any, error) {
		return c.inner.DashboardStats(ctx, p)
	})
}

// EnhancedStats implements dashboard.Client with coalescing.
func (c *Coalesced) EnhancedStats(ctx context.Context, p dashboard.StatsParams) (dashboard.EnhancedDashboardStats, error) {
	return coalesced[dashboard.EnhancedDashboardStats](ctx, c, "stats-enhanced", p, func(ctx context.Context) (any, error) {
		return c.inner.EnhancedStats(ctx, p)
	})
}

// ExecutiveDashboard implements dashboard.Client with coalescing.
func (c *Coalesced) ExecutiveDashboard(ctx context.Context, p dashboard.ExecutiveParams) (dashboard.ExecutiveDashboardResponse, error) {
	return coalesced[dashboard.ExecutiveDashboardResponse](ctx, c, "executive", p, func(ctx context.Context) (any, error) {
		return c.inner.ExecutiveDashboard(ctx, p)
	})
}

// UnifiedView implements dashboard.Client with coalescing.
func (c *Coalesced) UnifiedView(ctx context.Context, p dashboard.UnifiedParams) (dashboard.UnifiedView, error) {
	return coalesced[dashboard.UnifiedView](ctx, c, "unified", p, func(ctx context.Context) (any, error) {
		return c.inner.UnifiedView(ctx, p)
	})
}

func coalesced[T any](ctx context.Context, c *Coalesced, op string, params any, fetch func(ctx context.Context) (any, error)) (T, error) {
	var zero T
	key := op + querykey.Separator + c.ser.Serialize(params)
	v, err := c.cache.GetOrFetch(ctx, key, fetch)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("upstream: coalesced response for %s holds %T", op, v)
	}
	return typed, nil
}
