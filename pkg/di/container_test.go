package di

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posalpro/go-dashboard-cache/cache"
)

func TestNewContainerWithDefaults(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)

	assert.NotNil(t, c.Store())
	assert.NotNil(t, c.DashboardOrchestrator())
	assert.NotNil(t, c.CustomerOrchestrator())
	assert.Nil(t, c.DashboardClient(), "no upstream configured means no client")
}

func TestNewContainer_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "with upstream", mutate: func(c *Config) { c.UpstreamBaseURL = "http://localhost:8080" }},
		{name: "bad upstream url", mutate: func(c *Config) { c.UpstreamBaseURL = "not a url" }, wantErr: true},
		{name: "zero coalesce capacity", mutate: func(c *Config) { c.Coalesce.Capacity = 0 }, wantErr: true},
		{name: "retain below stale", mutate: func(c *Config) {
			c.Windows = cache.Windows{Stale: time.Minute, Retain: time.Second}
		}, wantErr: true},
		{name: "stats windows invalid", mutate: func(c *Config) {
			c.StatsWindows = cache.Windows{Stale: 0, Retain: time.Minute}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewContainer(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContainer_SharesOneStore(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)

	assert.Same(t, c.Store(), c.DashboardOrchestrator().Store())
	assert.Same(t, c.Store(), c.CustomerOrchestrator().Store())
	assert.Same(t, c.Store(), c.NewOrchestrator("proposals").Store())
}

func TestContainer_DomainWindows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = cache.Windows{Stale: 10 * time.Second, Retain: 40 * time.Second}
	cfg.StatsWindows = cache.Windows{Stale: 90 * time.Second, Retain: 6 * time.Minute}

	c, err := NewContainer(cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.StatsWindows, c.DashboardOrchestrator().Windows())
	assert.Equal(t, cfg.Windows, c.CustomerOrchestrator().Windows())
	assert.Equal(t, cfg.Windows, c.NewOrchestrator("proposals").Windows())
}
