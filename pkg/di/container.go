// Package di wires the cache layer together: one shared entry store, one
// orchestrator per domain, the coalesced upstream client, and the cached
// repository factory. Applications build a Container once at startup and
// hand its pieces to the features that need them.
package di

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/posalpro/go-dashboard-cache/cache"
	"github.com/posalpro/go-dashboard-cache/customers"
	"github.com/posalpro/go-dashboard-cache/dashboard"
	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
	"github.com/posalpro/go-dashboard-cache/internal/upstream"
	"github.com/posalpro/go-dashboard-cache/orchestrator"
	"github.com/posalpro/go-dashboard-cache/querykey"
	"github.com/posalpro/go-dashboard-cache/repocache"
)

// Config carries everything the container needs to assemble the cache layer.
type Config struct {
	// UpstreamBaseURL is the dashboard API origin. Leave empty when the
	// process serves no dashboard queries; DashboardClient is nil then.
	UpstreamBaseURL string

	// Coalesce configures the transport-level request cache in front of
	// the upstream client.
	Coalesce upstream.CoalesceConfig

	// Windows are the default freshness windows for entity queries.
	// StatsWindows apply to aggregates, which tolerate more staleness.
	Windows      cache.Windows
	StatsWindows cache.Windows

	// Clock drives freshness decisions. Tests inject a fake; nil selects
	// the real clock.
	Clock clockwork.Clock

	// Logger is shared by every wired component. The zero value discards.
	Logger zerolog.Logger

	// Telemetry receives orchestrator events. Nil discards them.
	Telemetry orchestrator.Recorder
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Coalesce:     upstream.DefaultCoalesceConfig(),
		Windows:      cache.DefaultWindows(),
		StatsWindows: cache.StatsWindows(),
		Logger:       zerolog.Nop(),
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.UpstreamBaseURL, is.URL),
	); err != nil {
		return err
	}
	if err := c.Coalesce.Validate(); err != nil {
		return err
	}
	if err := c.Windows.Validate(); err != nil {
		return fmt.Errorf("di: windows: %w", err)
	}
	if err := c.StatsWindows.Validate(); err != nil {
		return fmt.Errorf("di: stats windows: %w", err)
	}
	return nil
}

// Container holds the assembled cache layer. Components are singletons;
// construct one container per process.
type Container struct {
	cfg   Config
	store *entrystore.Store

	dashboardClient dashboard.Client
	dashboardOrch   *orchestrator.Orchestrator
	customerOrch    *orchestrator.Orchestrator
}

// NewContainer assembles the cache layer from the given configuration.
func NewContainer(cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	telemetry := cfg.Telemetry
	if telemetry == nil {
		telemetry = orchestrator.NopRecorder{}
	}

	store := entrystore.New(entrystore.Config{Clock: clock, Logger: cfg.Logger})

	c := &Container{cfg: cfg, store: store}

	if cfg.UpstreamBaseURL != "" {
		base := upstream.New(cfg.UpstreamBaseURL, upstream.WithLogger(cfg.Logger))
		coalesced, err := upstream.NewCoalesced(base, cfg.Coalesce)
		if err != nil {
			return nil, err
		}
		c.dashboardClient = coalesced
	}

	c.dashboardOrch = orchestrator.New(store, dashboard.Keys(),
		orchestrator.WithWindows(cfg.StatsWindows),
		orchestrator.WithLogger(cfg.Logger),
		orchestrator.WithTelemetry(telemetry),
	)
	c.customerOrch = orchestrator.New(store, customers.Keys(),
		orchestrator.WithWindows(cfg.Windows),
		orchestrator.WithLogger(cfg.Logger),
		orchestrator.WithTelemetry(telemetry),
		orchestrator.WithStatsPrefixes(dashboard.Keys().All()),
	)

	return c, nil
}

// NewContainerWithDefaults assembles the cache layer with DefaultConfig.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultConfig())
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() Config { return c.cfg }

// Store returns the shared entry store.
func (c *Container) Store() *entrystore.Store { return c.store }

// DashboardClient returns the coalesced upstream client, or nil when no
// UpstreamBaseURL was configured.
func (c *Container) DashboardClient() dashboard.Client { return c.dashboardClient }

// DashboardOrchestrator returns the orchestrator owning the dashboard
// subtree.
func (c *Container) DashboardOrchestrator() *orchestrator.Orchestrator { return c.dashboardOrch }

// CustomerOrchestrator returns the orchestrator owning the customers
// subtree. Customer mutations also stale the dashboard aggregates.
func (c *Container) CustomerOrchestrator() *orchestrator.Orchestrator { return c.customerOrch }

// NewOrchestrator builds an orchestrator for an additional entity domain,
// coupled to the dashboard aggregates like the built-in ones.
//
// Go methods cannot carry extra type parameters, so the repository factory
// below is a package-level function; this helper keeps domain wiring next to
// it.
func (c *Container) NewOrchestrator(domain string) *orchestrator.Orchestrator {
	telemetry := c.cfg.Telemetry
	if telemetry == nil {
		telemetry = orchestrator.NopRecorder{}
	}
	return orchestrator.New(c.store, querykey.NewRegistry(domain, nil),
		orchestrator.WithWindows(c.cfg.Windows),
		orchestrator.WithLogger(c.cfg.Logger),
		orchestrator.WithTelemetry(telemetry),
		orchestrator.WithStatsPrefixes(dashboard.Keys().All()),
	)
}

// NewCachedRepository wraps base with read-through caching under the given
// domain namespace. Example: NewCachedRepository[User](container, "users", baseRepo).
func NewCachedRepository[T any](c *Container, domain string, base repository.Repository[T]) *repocache.CachedRepository[T] {
	return repocache.New(base, c.NewOrchestrator(domain))
}
