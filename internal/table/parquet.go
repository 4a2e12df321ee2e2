package table

import (
	"io"
	"math"

	"github.com/jonathan/energy-insights/internal/types"
	"github.com/parquet-go/parquet-go"
)

// parquetRow is the on-disk layout written by the modeling stage. Every field is a pointer
// because pandas writes all columns as nullable.
type parquetRow struct {
	BuildingID            *string  `parquet:"building_id"`
	BuildingType          *string  `parquet:"building_type"`
	Cluster               *int64   `parquet:"cluster"`
	IsAnomaly             *bool    `parquet:"is_anomaly"`
	Underperformer        *bool    `parquet:"underperformer"`
	PriorityRank          *int64   `parquet:"priority_rank"`
	Baseload              *float64 `parquet:"baseload"`
	WeekendRatio          *float64 `parquet:"weekend_ratio"`
	PredictedWeekendRatio *float64 `parquet:"predicted_weekend_ratio"`
	WeekendGap            *float64 `parquet:"weekend_gap"`
	NightRatio            *float64 `parquet:"night_ratio"`
	AvgConsumption        *float64 `parquet:"avg_consumption"`
	Recommendation        *string  `parquet:"recommendation"`
	ShapJSON              *string  `parquet:"shap_json"`
}

// LoadParquet decodes a columnar predictions artifact.
func LoadParquet(r io.ReaderAt, size int64, source string) (*Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "failed to open parquet file", Cause: err}
	}

	schema := f.Schema()
	present := make(map[string]bool)
	for _, col := range append(append([]string{}, RequiredColumns...),
		ColUnderperformer, ColWeekendRatio, ColPredictedWeekendRatio, ColWeekendGap,
		ColNightRatio, ColAvgConsumption, ColRecommendation, ColShapJSON) {
		if _, ok := schema.Lookup(col); ok {
			present[col] = true
		}
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, &LoadError{Source: source, Message: "bad schema", Cause: &MissingColumnError{Column: col}}
		}
	}

	rows, err := parquet.Read[parquetRow](r, size)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "failed to read rows", Cause: err}
	}

	records := make([]types.BuildingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}

	return New(records, ColumnsFromNames(present), source)
}

func (p parquetRow) record() types.BuildingRecord {
	rec := types.BuildingRecord{
		BuildingID:            deref(p.BuildingID),
		BuildingType:          deref(p.BuildingType),
		Cluster:               int(deref(p.Cluster)),
		IsAnomaly:             deref(p.IsAnomaly),
		Underperformer:        p.Underperformer,
		PriorityRank:          int(deref(p.PriorityRank)),
		Baseload:              math.NaN(),
		WeekendRatio:          p.WeekendRatio,
		PredictedWeekendRatio: p.PredictedWeekendRatio,
		WeekendGap:            p.WeekendGap,
		NightRatio:            deref(p.NightRatio),
		AvgConsumption:        deref(p.AvgConsumption),
		Recommendation:        deref(p.Recommendation),
	}
	// a null baseload stays NaN so New rejects the row
	if p.Baseload != nil {
		rec.Baseload = *p.Baseload
	}
	if p.ShapJSON != nil && *p.ShapJSON != "" {
		rec.ShapJSON = p.ShapJSON
	}
	return rec
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
