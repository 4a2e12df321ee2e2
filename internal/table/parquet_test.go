package table

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalRow mirrors an artifact written without the optional columns.
type minimalRow struct {
	BuildingID   string  `parquet:"building_id"`
	BuildingType string  `parquet:"building_type"`
	Cluster      int64   `parquet:"cluster"`
	IsAnomaly    bool    `parquet:"is_anomaly"`
	PriorityRank int64   `parquet:"priority_rank"`
	Baseload     float64 `parquet:"baseload"`
}

func ptr[T any](v T) *T { return &v }

func TestLoadParquet_FullSchema(t *testing.T) {
	rows := []parquetRow{
		{
			BuildingID:     ptr("B1"),
			BuildingType:   ptr("Office"),
			Cluster:        ptr(int64(0)),
			IsAnomaly:      ptr(true),
			Underperformer: ptr(false),
			PriorityRank:   ptr(int64(2)),
			Baseload:       ptr(80.0),
			WeekendRatio:   ptr(0.7),
			NightRatio:     ptr(0.5),
			AvgConsumption: ptr(150.0),
			Recommendation: ptr("Audit"),
			ShapJSON:       ptr(`{"a": 0.5}`),
		},
		{
			BuildingID:   ptr("B2"),
			BuildingType: ptr("School"),
			Cluster:      ptr(int64(1)),
			IsAnomaly:    ptr(false),
			PriorityRank: ptr(int64(1)),
			Baseload:     ptr(20.0),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, rows))

	tbl, err := LoadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "full.parquet")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	assert.True(t, tbl.Columns().Underperformer)
	assert.True(t, tbl.Columns().ShapJSON)

	b1, ok := tbl.Lookup("B1")
	require.True(t, ok)
	assert.True(t, b1.IsAnomaly)
	assert.Equal(t, 2, b1.PriorityRank)
	require.NotNil(t, b1.WeekendRatio)
	assert.InDelta(t, 0.7, *b1.WeekendRatio, 1e-9)
	assert.Equal(t, "Audit", b1.Recommendation)

	b2, ok := tbl.Lookup("B2")
	require.True(t, ok)
	assert.Nil(t, b2.WeekendRatio)
	assert.Nil(t, b2.ShapJSON)
	assert.False(t, b2.IsUnderperformer())
}

func TestLoadParquet_OptionalColumnsAbsent(t *testing.T) {
	rows := []minimalRow{
		{BuildingID: "A", BuildingType: "Retail", Cluster: 3, IsAnomaly: true, PriorityRank: 1, Baseload: 12.5},
	}

	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, rows))

	tbl, err := LoadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "min.parquet")
	require.NoError(t, err)

	assert.Equal(t, Columns{}, tbl.Columns())
	rec := tbl.At(0)
	assert.Equal(t, "A", rec.BuildingID)
	assert.Equal(t, 3, rec.Cluster)
	assert.Nil(t, rec.Underperformer)
	assert.Nil(t, rec.WeekendRatio)
}

func TestLoadParquet_MissingRequiredColumn(t *testing.T) {
	type noBaseload struct {
		BuildingID   string `parquet:"building_id"`
		BuildingType string `parquet:"building_type"`
		Cluster      int64  `parquet:"cluster"`
		IsAnomaly    bool   `parquet:"is_anomaly"`
		PriorityRank int64  `parquet:"priority_rank"`
	}

	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, []noBaseload{{BuildingID: "A"}}))

	_, err := LoadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "bad.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColBaseload)
}

func TestLoadParquet_NullBaseloadRejected(t *testing.T) {
	rows := []parquetRow{
		{BuildingID: ptr("A"), BuildingType: ptr("Retail"), Cluster: ptr(int64(0)), IsAnomaly: ptr(false),
			PriorityRank: ptr(int64(1)), Baseload: ptr(10.0)},
		{BuildingID: ptr("B"), BuildingType: ptr("Retail"), Cluster: ptr(int64(0)), IsAnomaly: ptr(false),
			PriorityRank: ptr(int64(2))},
	}

	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, rows))

	_, err := LoadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "nulls.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), ColBaseload)
}

func TestLoadParquet_NotParquet(t *testing.T) {
	data := []byte("building_id,cluster\n")
	_, err := LoadParquet(bytes.NewReader(data), int64(len(data)), "fake.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open parquet file")
}
