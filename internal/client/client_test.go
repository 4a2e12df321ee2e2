package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/server"
	"github.com/jonathan/energy-insights/internal/server/ratelimit"
	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func startAPI(t *testing.T) *httptest.Server {
	t.Helper()
	records := []types.BuildingRecord{
		{BuildingID: "B1", BuildingType: "Office", Cluster: 0, IsAnomaly: true, PriorityRank: 2, Baseload: 90, WeekendRatio: f64(0.7), ShapJSON: str(`{"baseload": 0.4}`)},
		{BuildingID: "B/2", BuildingType: "School", Cluster: 1, PriorityRank: 1, Baseload: 10, WeekendRatio: f64(0.2)},
	}
	tbl, err := table.New(records, table.Columns{WeekendRatio: true, ShapJSON: true}, "test")
	require.NoError(t, err)

	srv, err := server.New(server.Config{Service: query.New(tbl), RateLimit: &ratelimit.Config{Enabled: false}})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_RoundTrip(t *testing.T) {
	ts := startAPI(t)
	c, err := New(ts.URL+"/", nil)
	require.NoError(t, err)
	assert.Equal(t, ts.URL, c.BaseURL())
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, &types.HealthStatus{Status: "ok", Buildings: 2}, health)

	items, err := c.ListBuildings(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B1", items[0].BuildingID)

	detail, err := c.GetBuilding(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"baseload": 0.4}, detail.ShapValues)

	summary, err := c.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalBuildings)
	assert.Equal(t, map[int]int{0: 1, 1: 1}, summary.Clusters)

	cluster, err := c.GetCluster(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B/2"}, cluster.Buildings)
}

func TestClient_EscapedID(t *testing.T) {
	c, err := New(startAPI(t).URL, nil)
	require.NoError(t, err)

	detail, err := c.GetBuilding(context.Background(), "B/2")
	require.NoError(t, err)
	assert.Equal(t, "School", detail.BuildingType)
	assert.NotNil(t, detail.ShapValues)
}

func TestClient_DotSegmentIDs(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{id: "..", want: "/building/%2E%2E"},
		{id: ".", want: "/building/%2E"},
		{id: "a.b", want: "/building/a.b"},
		{id: "B/2", want: "/building/B%2F2"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			var gotPath string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"building_id": "` + strings.TrimPrefix(r.URL.Path, "/building/") + `"}`))
			}))
			defer ts.Close()

			c, err := New(ts.URL, nil)
			require.NoError(t, err)

			detail, err := c.GetBuilding(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotPath)
			assert.Equal(t, tt.id, detail.BuildingID)
		})
	}
}

func TestClient_DoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status": "ok", "buildings": 3}`))
			return
		}
		http.Redirect(w, r, "/health", http.StatusMovedPermanently)
	}))
	defer ts.Close()

	c, err := New(ts.URL, nil)
	require.NoError(t, err)

	_, err = c.GetBuilding(context.Background(), "B1")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusMovedPermanently, apiErr.StatusCode)
}

func TestClient_NotFound(t *testing.T) {
	c, err := New(startAPI(t).URL, nil)
	require.NoError(t, err)

	_, err = c.GetBuilding(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, query.ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "building not found: missing")

	_, err = c.GetCluster(context.Background(), 42)
	assert.True(t, errors.Is(err, query.ErrNotFound))
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url, nil)
	require.NoError(t, err)

	_, err = c.GetSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL, nil)
	require.NoError(t, err)

	_, err = c.GetSummary(context.Background())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestClient_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	c, err := New(ts.URL, nil)
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestClient_SendsToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"status":"ok","buildings":0}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, &Options{Token: "abc"})
	require.NoError(t, err)
	_, err = c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "://bad"} {
		_, err := New(raw, nil)
		assert.Error(t, err, "base URL %q should be rejected", raw)
	}
}
