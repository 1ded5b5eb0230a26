package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gridsync/gridsync/iox"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/types"
)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response body is kept for
// classification and messages.
const maxErrorBody = 2048

// queryVariant is one (filter field, metric projection) combination tried
// against the analytics endpoint. The endpoint's filter semantics are
// inconsistent across providers and API revisions, so the client walks an
// ordered variant list and stops at the first one returning data.
type queryVariant struct {
	filterField string
	withMetrics bool
}

// queryVariants is the fallback order. Explicit metric projection with the
// modern filter field first, bare legacy filter last.
var queryVariants = []queryVariant{
	{filterField: "profileIds", withMetrics: true},
	{filterField: "profileIds", withMetrics: false},
	{filterField: "profiles", withMetrics: true},
	{filterField: "profiles", withMetrics: false},
}

// ClientConfig configures the analytics API client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.com/v1" (required).
	BaseURL string
	// HTTPClient is an opaque pre-authenticated client (bearer transport,
	// etc.). Defaults to a plain client with DefaultTimeout.
	HTTPClient *http.Client
	// Retry is the retry policy wrapping every request. Defaults to
	// NewRetryPolicy().
	Retry *RetryPolicy
	// Logger receives fetch diagnostics. Optional.
	Logger *log.SugaredLogger
}

// Client is the HTTP implementation of AnalyticsSource and
// ProfileDirectory against the analytics provider's REST API.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *RetryPolicy
	logger  *log.SugaredLogger
}

// NewClient creates an analytics API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("analytics client requires a base URL")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	retry := cfg.Retry
	if retry == nil {
		retry = NewRetryPolicy()
	}
	if retry.Logger == nil {
		retry.Logger = cfg.Logger
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		retry:   retry,
		logger:  cfg.Logger,
	}, nil
}

// Query implements AnalyticsSource with multi-variant fallback.
//
// Each variant is retried per the policy. The first variant returning at
// least one data point wins. When every variant comes back empty the
// result is an empty slice, not an error; when every variant errors out
// the last failure is returned.
func (c *Client) Query(ctx context.Context, q Query) ([]types.RawDataPoint, error) {
	var (
		lastErr  error
		sawEmpty bool
	)

	for _, variant := range queryVariants {
		if !variant.withMetrics && len(q.Metrics) == 0 {
			// Without requested metrics the bare variant is identical to
			// the projected one already tried; skip the duplicate request.
			continue
		}

		var points []types.RawDataPoint
		err := c.retry.Do(ctx, "query "+q.ProfileID, func(ctx context.Context) error {
			var qerr error
			points, qerr = c.doQuery(ctx, q, variant)
			return qerr
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(points) > 0 {
			return points, nil
		}
		sawEmpty = true
	}

	if sawEmpty {
		return []types.RawDataPoint{}, nil
	}
	return nil, lastErr
}

// analyticsResponse is the wire shape of the analytics endpoint.
type analyticsResponse struct {
	Data []types.RawDataPoint `json:"data"`
}

// doQuery performs a single analytics request for one variant.
func (c *Client) doQuery(ctx context.Context, q Query, v queryVariant) ([]types.RawDataPoint, error) {
	params := url.Values{}
	params.Set(v.filterField, q.ProfileID)
	params.Set("startDate", q.Window.Start)
	params.Set("endDate", q.Window.End)
	if v.withMetrics && len(q.Metrics) > 0 {
		params.Set("metrics", strings.Join(q.Metrics, ","))
	}

	var resp analyticsResponse
	if err := c.getJSON(ctx, "query", "/analytics?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListGroups implements ProfileDirectory.
func (c *Client) ListGroups(ctx context.Context) ([]types.Group, error) {
	var resp struct {
		Groups []types.Group `json:"groups"`
	}
	err := c.retry.Do(ctx, "list_groups", func(ctx context.Context) error {
		return c.getJSON(ctx, "list_groups", "/groups", &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// ListProfiles implements ProfileDirectory.
func (c *Client) ListProfiles(ctx context.Context) ([]types.Profile, error) {
	var resp struct {
		Profiles []types.Profile `json:"profiles"`
	}
	err := c.retry.Do(ctx, "list_profiles", func(ctx context.Context) error {
		return c.getJSON(ctx, "list_profiles", "/profiles", &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// getJSON performs one GET and decodes a 2xx JSON response into v.
// Non-2xx responses become classified FetchErrors.
func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Class: ClassifyErr(err), Op: op, Err: err}
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &FetchError{
			Class:      ClassifyStatus(resp.StatusCode, string(body)),
			Op:         op,
			Status:     resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{Class: ClassOther, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// parseRetryAfter parses a Retry-After header value in seconds.
// HTTP-date forms are rare on analytics APIs and are ignored.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Verify interface conformance.
var (
	_ AnalyticsSource  = (*Client)(nil)
	_ ProfileDirectory = (*Client)(nil)
)
