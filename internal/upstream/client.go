// Package upstream implements the server boundary: an HTTP JSON client for
// the dashboard API. Responses arrive in a {success, data, meta} envelope;
// a failed envelope or non-2xx status surfaces as an *APIError.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/posalpro/go-dashboard-cache/dashboard"
)

// APIError describes a failed call to the dashboard API.
type APIError struct {
	Status  int
	Path    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// Meta carries response metadata used to compute cache-hit flags and paging
// cursors. Fields are optional on most endpoints.
type Meta struct {
	ServedFromCache bool   `json:"servedFromCache,omitempty"`
	NextCursor      string `json:"nextCursor,omitempty"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the dashboard API over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Timeouts are the
// transport's responsibility; this layer does not manage them.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New constructs a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ dashboard.Client = (*Client)(nil)

// DashboardStats fetches the base aggregate.
func (c *Client) DashboardStats(ctx context.Context, p dashboard.StatsParams) (dashboard.DashboardStats, error) {
	q := url.Values{}
	q.Set("timeframe", p.Timeframe)
	q.Set("includeArchived", strconv.FormatBool(p.IncludeArchived))
	return getJSON[dashboard.DashboardStats](ctx, c, "/api/dashboard/stats", q)
}

// EnhancedStats fetches the aggregate with growth deltas.
func (c *Client) EnhancedStats(ctx context.Context, p dashboard.StatsParams) (dashboard.EnhancedDashboardStats, error) {
	q := url.Values{}
	q.Set("timeframe", p.Timeframe)
	q.Set("includeArchived", strconv.FormatBool(p.IncludeArchived))
	return getJSON[dashboard.EnhancedDashboardStats](ctx, c, "/api/dashboard/stats/enhanced", q)
}

// ExecutiveDashboard fetches the executive view.
func (c *Client) ExecutiveDashboard(ctx context.Context, p dashboard.ExecutiveParams) (dashboard.ExecutiveDashboardResponse, error) {
	q := url.Values{}
	q.Set("timeframe", p.Timeframe)
	return getJSON[dashboard.ExecutiveDashboardResponse](ctx, c, "/api/dashboard/executive", q)
}

// UnifiedView fetches the cross-entity view in one round trip.
func (c *Client) UnifiedView(ctx context.Context, p dashboard.UnifiedParams) (dashboard.UnifiedView, error) {
	q := url.Values{}
	q.Set("timeframe", p.Timeframe)
	for _, s := range p.Sections {
		q.Add("section", s)
	}
	return getJSON[dashboard.UnifiedView](ctx, c, "/api/dashboard/unified", q)
}

func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, fmt.Errorf("upstream: build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return zero, fmt.Errorf("upstream: %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("upstream call")

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return zero, &APIError{Status: resp.StatusCode, Path: path, Message: http.StatusText(resp.StatusCode)}
		}
		return zero, fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return zero, &APIError{Status: resp.StatusCode, Path: path, Message: msg}
	}
	return env.Data, nil
}
