package snapshot

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/energy-insights/internal/dashboard"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
)

func shap(s string) *string { return &s }

func testDashboard(t *testing.T) http.Handler {
	t.Helper()
	records := []types.BuildingRecord{
		{BuildingID: "B1", BuildingType: "Office", Cluster: 0, IsAnomaly: true, PriorityRank: 2, Baseload: 90,
			ShapJSON: shap(`{"baseload": 0.4}`)},
		{BuildingID: "B2", BuildingType: "School", Cluster: 1, PriorityRank: 1, Baseload: 10},
	}
	tbl, err := table.New(records, table.Columns{ShapJSON: true}, "test")
	require.NoError(t, err)

	d, err := dashboard.New(dashboard.Options{Source: dashboard.NewLocalSource(query.New(tbl))})
	require.NoError(t, err)
	return d.Handler()
}

func render(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestInspect_Overview(t *testing.T) {
	info, err := Inspect(render(t, testDashboard(t), "/"))
	require.NoError(t, err)

	assert.Equal(t, "Overview", info.ActiveTab)
	assert.Equal(t, 2, info.Cards)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, "2", info.Metrics["Total Buildings"])
	assert.Equal(t, "1", info.Metrics["Anomalies"])
	assert.False(t, info.HasChart)
}

func TestInspect_Explorer(t *testing.T) {
	info, err := Inspect(render(t, testDashboard(t), "/explorer?building=B1"))
	require.NoError(t, err)
	assert.Equal(t, "Building Explorer", info.ActiveTab)
	assert.True(t, info.HasChart)
}

func TestInspect_Unavailable(t *testing.T) {
	html := `<html><body><main><div id="unavailable"><p>Cannot connect to API at http://localhost:8000</p></div></main></body></html>`
	_, err := Inspect(html)
	require.ErrorIs(t, err, ErrDashboardUnavailable)
	assert.Contains(t, err.Error(), "http://localhost:8000")
}

func TestInspect_NotDashboard(t *testing.T) {
	_, err := Inspect(`<html><body><p>hello</p></body></html>`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no main element")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, 100, opts.Quality)
}
