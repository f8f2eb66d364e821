// Package dashboard exposes the typed data fetch accessors and value objects
// of the proposal dashboard: aggregated statistics, executive metrics, and
// the unified cross-entity view.
//
// The value objects are read-only aggregates produced at the server boundary;
// this layer never mutates their contents, only their cache placement. All
// queries use the stats-class freshness windows (60s stale / 300s retain)
// since aggregates mutate far less often than entities.
package dashboard

import "time"

// Timeframes accepted by the aggregation endpoints.
const (
	Timeframe3M = "3M"
	Timeframe6M = "6M"
	Timeframe1Y = "1Y"
)

// DashboardStats is the base aggregate shown on the default dashboard. All
// counts and amounts are non-negative.
type DashboardStats struct {
	Timeframe        string  `json:"timeframe"`
	TotalProposals   int     `json:"totalProposals"`
	ActiveProposals  int     `json:"activeProposals"`
	WonProposals     int     `json:"wonProposals"`
	TotalCustomers   int     `json:"totalCustomers"`
	TotalRevenue     float64 `json:"totalRevenue"`
	WinRate          float64 `json:"winRate"`
	AvgCycleTimeDays float64 `json:"avgCycleTimeDays"`
}

// EnhancedDashboardStats extends the base aggregate with period-over-period
// growth deltas. Growth fields are the only signed metrics.
type EnhancedDashboardStats struct {
	DashboardStats
	RevenueGrowth  float64 `json:"revenueGrowth"`
	ProposalGrowth float64 `json:"proposalGrowth"`
	CustomerGrowth float64 `json:"customerGrowth"`
	PipelineValue  float64 `json:"pipelineValue"`
}

// RevenueMetrics compares the current period against the previous one.
type RevenueMetrics struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Growth   float64 `json:"growth"`
}

// PipelineStage is one stage of the proposal pipeline funnel.
type PipelineStage struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// ExecutiveDashboardResponse is the executive-view aggregate.
type ExecutiveDashboardResponse struct {
	Timeframe      string          `json:"timeframe"`
	Revenue        RevenueMetrics  `json:"revenue"`
	WinRate        float64         `json:"winRate"`
	PipelineStages []PipelineStage `json:"pipelineStages"`
}

// ProposalSummary is the proposal slice of the unified view.
type ProposalSummary struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
}

// CustomerSummary is the customer slice of the unified view.
type CustomerSummary struct {
	Total       int `json:"total"`
	ActiveDeals int `json:"activeDeals"`
}

// UnifiedView bundles proposals, customers, and the base stats into one
// cross-entity payload fetched in a single round trip.
type UnifiedView struct {
	Proposals   ProposalSummary `json:"proposals"`
	Customers   CustomerSummary `json:"customers"`
	Stats       DashboardStats  `json:"stats"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
