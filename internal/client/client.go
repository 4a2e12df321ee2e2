// Package client is the dashboard's HTTP client for the query API.
package client

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

	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is the user agent string for API requests.
const DefaultUserAgent = "energy-insights-dashboard/1.0"

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

// ErrUnavailable is matched when the API cannot be reached at all.
var ErrUnavailable = errors.New("api unavailable")

// Error represents a failed API call. A 404 matches query.ErrNotFound and a transport
// failure matches ErrUnavailable.
type Error struct {
	URL         string
	Message     string
	StatusCode  int
	Cause       error
	unreachable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("api error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("api error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets callers branch on errors.Is without inspecting status codes.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.unreachable
	case query.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Options configures the client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Token     string // bearer token when the API requires auth
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client calls the query API.
type Client struct {
	base *url.URL
	http *http.Client
	opts Options
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{URL: baseURL, Message: "invalid base URL", Cause: err}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout: timeout,
			// the API never redirects; following one would decode another endpoint's body
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts: *opts,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*types.HealthStatus, error) {
	var out types.HealthStatus
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBuildings calls GET /buildings.
func (c *Client) ListBuildings(ctx context.Context) ([]types.BuildingListItem, error) {
	var out []types.BuildingListItem
	if err := c.getJSON(ctx, "/buildings", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.BuildingListItem{}
	}
	return out, nil
}

// GetBuilding calls GET /building/{id}.
func (c *Client) GetBuilding(ctx context.Context, id string) (*types.BuildingDetail, error) {
	var out types.BuildingDetail
	if err := c.getJSON(ctx, "/building/"+escapeSegment(id), &out); err != nil {
		return nil, err
	}
	if out.ShapValues == nil {
		out.ShapValues = map[string]float64{}
	}
	return &out, nil
}

// GetSummary calls GET /summary.
func (c *Client) GetSummary(ctx context.Context) (*types.Summary, error) {
	var out types.Summary
	if err := c.getJSON(ctx, "/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCluster calls GET /cluster/{id}.
func (c *Client) GetCluster(ctx context.Context, clusterID int) (*types.ClusterStats, error) {
	var out types.ClusterStats
	if err := c.getJSON(ctx, "/cluster/"+strconv.Itoa(clusterID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	// path is already escaped; JoinPath would escape it again and resolve dot segments
	full := c.base.String() + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return &Error{URL: full, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{URL: full, Message: "HTTP request failed", Cause: err, unreachable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &Error{URL: full, Message: "failed to read response body", Cause: err, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{URL: full, Message: statusMessage(resp.StatusCode, body), StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{URL: full, Message: "failed to decode response", Cause: err, StatusCode: resp.StatusCode}
	}
	return nil
}

// escapeSegment escapes id as a single path segment. PathEscape leaves "." and ".."
// alone, which servers and proxies resolve as relative segments.
func escapeSegment(id string) string {
	if id == "." || id == ".." {
		return strings.ReplaceAll(id, ".", "%2E")
	}
	return url.PathEscape(id)
}

// statusMessage prefers the server's {"error": ...} text over the bare status.
func statusMessage(code int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("HTTP status %d: %s", code, payload.Error)
	}
	return fmt.Sprintf("HTTP status %d", code)
}
