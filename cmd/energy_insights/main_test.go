package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/server"
	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
)

const sampleCSV = `building_id,building_type,cluster,is_anomaly,underperformer,priority_rank,baseload,weekend_ratio,night_ratio,avg_consumption,recommendation,shap_json
B1,Office,0,True,True,3,100.0,0.8,0.7,150.0,Audit HVAC schedules,"{""baseload"": 0.5, ""night_ratio"": -0.3}"
B2,School,1,False,False,1,20.0,0.3,0.2,40.0,Benchmark,
B3,Office,0,False,False,2,60.0,0.6,0.5,90.0,Lighting retrofit,{}
`

// isolate clears environment overrides so a developer's shell cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENERGY_ARTIFACT", "ENERGY_DATA_DIR", "ENERGY_PLOTS_DIR", "ENERGY_API_URL",
		"ENERGY_PORT", "ENERGY_DASHBOARD_PORT", "ENERGY_TIMEOUT_SECONDS",
		"DASHBOARD_USER", "DASHBOARD_PASSWORD_HASH", "S3_ENDPOINT", "S3_USE_SSL",
	} {
		t.Setenv(key, "")
	}
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, table.DefaultCSVName), []byte(content), 0o644))
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)

	out, err := run(t, "", "summary", "--data-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "PORTFOLIO SUMMARY")
	assert.Contains(t, out, "Buildings:        3")
	assert.Contains(t, out, "Cluster 0: High Baseload (24/7 Operators)")
	assert.Contains(t, out, "Cluster 1: Efficient Buildings")
	assert.NotContains(t, out, "Building: ")
}

func TestSummaryCommand_Building(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)

	out, err := run(t, "", "summary", "--data-dir", dir, "--building", "B1")
	require.NoError(t, err)
	assert.Contains(t, out, "Building: B1 (Office)")
	assert.Contains(t, out, "+0.500")

	_, err = run(t, "", "summary", "--data-dir", dir, "-b", "NOPE")
	require.ErrorIs(t, err, query.ErrNotFound)
}

func TestSummaryCommand_JSON(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)

	out, err := run(t, "", "summary", "--data-dir", dir, "--json")
	require.NoError(t, err)

	var summary types.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.TotalBuildings)
	assert.Equal(t, 1, summary.Anomalies)
	require.Len(t, summary.TopPriority, 3)
	assert.Equal(t, "B2", summary.TopPriority[0].BuildingID)
}

func TestSummaryCommand_MissingArtifact(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "summary", "--data-dir", t.TempDir())
	require.ErrorIs(t, err, table.ErrArtifactNotFound)
}

func TestSummaryCommand_ConfigFile(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"artifact": "`+filepath.Join(dir, table.DefaultCSVName)+`"}`), 0o644))

	out, err := run(t, "", "summary", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Buildings:        3")
}

func TestSettings_FlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)
	t.Setenv("ENERGY_DATA_DIR", filepath.Join(dir, "elsewhere"))

	_, err := run(t, "", "summary", "--data-dir", dir)
	require.NoError(t, err)
}

func TestSettings_InvalidEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("ENERGY_PORT", "eighty")

	_, err := run(t, "", "summary", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENERGY_PORT")
}

func TestValidateCommand(t *testing.T) {
	isolate(t)
	dir := writeArtifact(t, sampleCSV)

	out, err := run(t, "", "validate", "--data-dir", dir, "--plots-dir", filepath.Join(dir, "plots"))
	require.NoError(t, err)
	assert.Contains(t, out, "PREDICTIONS TABLE")
	assert.Contains(t, out, "✓ shap_json")
	assert.Contains(t, out, "✗ predicted_weekend_ratio")
	assert.Contains(t, out, "ARTIFACT CHECKS: OK")
}

func TestValidateCommand_ReportsProblems(t *testing.T) {
	isolate(t)
	bad := strings.Replace(sampleCSV, "Lighting retrofit,{}", `Lighting retrofit,"{""baseload"": ""high""}"`, 1)
	dir := writeArtifact(t, bad)
	plots := filepath.Join(dir, "plots")
	require.NoError(t, os.MkdirAll(plots, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(plots, "summary_stats.json"), []byte(`{"building_types": "many"}`), 0o644))

	out, err := run(t, "", "validate", "--data-dir", dir, "--plots-dir", plots)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems found")
	assert.Contains(t, out, "building B3")
	assert.Contains(t, out, "summary_stats.json")
}

func TestTokenCommand(t *testing.T) {
	const secret = "test-secret-key-0123456789"
	t.Setenv("JWT_SECRET", secret)

	out, err := run(t, "", "token", "--client", "dashboard")
	require.NoError(t, err)

	cfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(cfg).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.Subject)
}

func TestTokenCommand_RequiresClient(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
	_, err := run(t, "", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "client" not set`)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "", "token", "--client", "dashboard")
	require.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PASSWORD_PEPPER", "")

	out, err := run(t, "correct horse\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	pc := &config.PasswordConfig{BcryptCost: 10}
	assert.True(t, pc.VerifyPassword("correct horse", hash))

	_, err = run(t, "", "hash-password")
	require.Error(t, err)
}

func TestSnapshotCommand_RequiresOut(t *testing.T) {
	_, err := run(t, "", "snapshot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "out" not set`)
}
