package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/schemas"
	"github.com/jonathan/energy-insights/internal/server/middleware"
	"github.com/jonathan/energy-insights/internal/server/ratelimit"
	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
	embedded "github.com/jonathan/energy-insights/schemas"
)

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }
func str(v string) *string   { return &v }

func testRecords() []types.BuildingRecord {
	return []types.BuildingRecord{
		{BuildingID: "B1", BuildingType: "Office", Cluster: 0, IsAnomaly: true, Underperformer: boolp(true), PriorityRank: 3, Baseload: 100, WeekendRatio: f64(0.8), Recommendation: "Audit HVAC schedules", ShapJSON: str(`{"baseload": 0.5, "night_ratio": -0.3}`)},
		{BuildingID: "B2", BuildingType: "School", Cluster: 1, IsAnomaly: false, Underperformer: boolp(false), PriorityRank: 1, Baseload: 20, WeekendRatio: f64(0.3), Recommendation: "Benchmark"},
		{BuildingID: "B3", BuildingType: "Office", Cluster: 0, IsAnomaly: false, Underperformer: boolp(false), PriorityRank: 2, Baseload: 60, Recommendation: "Lighting retrofit"},
	}
}

func newTestService(t *testing.T) *query.Service {
	t.Helper()
	tbl, err := table.New(testRecords(), table.Columns{Underperformer: true, WeekendRatio: true, ShapJSON: true, Recommendation: true}, "test")
	require.NoError(t, err)
	return query.New(tbl)
}

func newTestServer(t *testing.T, jwtCfg *config.JWTConfig, rl *ratelimit.Config) *Server {
	t.Helper()
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s, err := New(Config{Port: 0, Service: newTestService(t), JWT: jwtCfg, RateLimit: rl})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresService(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	for _, path := range []string{"/", "/health"} {
		t.Run(path, func(t *testing.T) {
			w := get(t, h, path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"ok","buildings":3}`, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestListBuildingsEndpoint(t *testing.T) {
	w := get(t, newTestServer(t, nil, nil).Handler(), "/buildings")
	require.Equal(t, http.StatusOK, w.Code)

	var items []types.BuildingListItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "B1", items[0].BuildingID)
	assert.Equal(t, 3, items[0].PriorityRank)
}

func TestGetBuildingEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	w := get(t, h, "/building/B1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, schemas.Validate(embedded.Building, w.Body.Bytes()))

	var detail types.BuildingDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Office", detail.BuildingType)
	assert.Equal(t, map[string]float64{"baseload": 0.5, "night_ratio": -0.3}, detail.ShapValues)

	w = get(t, h, "/building/B2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"shap_values":{}`)
}

func TestGetBuildingEndpoint_NotFound(t *testing.T) {
	w := get(t, newTestServer(t, nil, nil).Handler(), "/building/NOPE")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "NOPE")
}

func TestSummaryEndpoint(t *testing.T) {
	w := get(t, newTestServer(t, nil, nil).Handler(), "/summary")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, schemas.Validate(embedded.Summary, w.Body.Bytes()))

	var summary types.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalBuildings)
	assert.Equal(t, 1, summary.Anomalies)
	assert.Equal(t, 1, summary.Underperformers)
	assert.Equal(t, map[int]int{0: 2, 1: 1}, summary.Clusters)
	require.Len(t, summary.TopPriority, 3)
	assert.Equal(t, "B2", summary.TopPriority[0].BuildingID)
	assert.Equal(t, "B3", summary.TopPriority[1].BuildingID)
	assert.Equal(t, "B1", summary.TopPriority[2].BuildingID)
}

func TestClusterEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	w := get(t, h, "/cluster/0")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, schemas.Validate(embedded.Cluster, w.Body.Bytes()))

	var stats types.ClusterStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 80.0, stats.AvgBaseload, 1e-9)
	require.NotNil(t, stats.AvgWeekendRatio)
	assert.InDelta(t, 0.8, *stats.AvgWeekendRatio, 1e-9)
	assert.Equal(t, []string{"B1", "B3"}, stats.Buildings)
}

func TestClusterEndpoint_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/cluster/9").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/cluster/-1").Code)

	w := get(t, h, "/cluster/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cluster_id")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/summary", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/summary", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, nil, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/building/", Method: "GET", Limit: 2, Window: time.Hour, Burst: 2},
		},
	}).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/building/B1").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/building/B2").Code)

	w := get(t, h, "/building/B3")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Health stays reachable
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
}

func TestAuth(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testJWTSecret, Issuer: config.DefaultJWTIssuer, ExpirationHours: 1}
	s := newTestServer(t, jwtCfg, nil)
	h := s.Handler()

	token, err := s.jwtService.GenerateToken("dashboard")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code, "health is exempt")
	assert.Equal(t, http.StatusOK, get(t, h, "/").Code, "root is exempt")
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/summary").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/summary", "Authorization", "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/summary", "Authorization", "Bearer "+token).Code)
}
