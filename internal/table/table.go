// Package table holds the immutable in-memory predictions table and its loaders.
package table

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/energy-insights/internal/types"
)

// Column names as they appear in the predictions artifact.
const (
	ColBuildingID            = "building_id"
	ColBuildingType          = "building_type"
	ColCluster               = "cluster"
	ColIsAnomaly             = "is_anomaly"
	ColUnderperformer        = "underperformer"
	ColPriorityRank          = "priority_rank"
	ColBaseload              = "baseload"
	ColWeekendRatio          = "weekend_ratio"
	ColPredictedWeekendRatio = "predicted_weekend_ratio"
	ColWeekendGap            = "weekend_gap"
	ColNightRatio            = "night_ratio"
	ColAvgConsumption        = "avg_consumption"
	ColRecommendation        = "recommendation"
	ColShapJSON              = "shap_json"
)

// RequiredColumns must be present in every artifact.
var RequiredColumns = []string{
	ColBuildingID,
	ColBuildingType,
	ColCluster,
	ColIsAnomaly,
	ColPriorityRank,
	ColBaseload,
}

// Columns records which optional columns the artifact carried.
// An absent column means every record uses the field's default (nil or zero).
type Columns struct {
	Underperformer        bool `json:"underperformer"`
	WeekendRatio          bool `json:"weekend_ratio"`
	PredictedWeekendRatio bool `json:"predicted_weekend_ratio"`
	WeekendGap            bool `json:"weekend_gap"`
	NightRatio            bool `json:"night_ratio"`
	AvgConsumption        bool `json:"avg_consumption"`
	Recommendation        bool `json:"recommendation"`
	ShapJSON              bool `json:"shap_json"`
}

// ColumnsFromNames builds a Columns value from the set of column names present in an artifact.
func ColumnsFromNames(present map[string]bool) Columns {
	return Columns{
		Underperformer:        present[ColUnderperformer],
		WeekendRatio:          present[ColWeekendRatio],
		PredictedWeekendRatio: present[ColPredictedWeekendRatio],
		WeekendGap:            present[ColWeekendGap],
		NightRatio:            present[ColNightRatio],
		AvgConsumption:        present[ColAvgConsumption],
		Recommendation:        present[ColRecommendation],
		ShapJSON:              present[ColShapJSON],
	}
}

// Table is the predictions artifact held in memory. It is never mutated after New returns,
// so it is safe to share between goroutines without locking.
type Table struct {
	records []types.BuildingRecord
	index   map[string]int
	columns Columns
	source  string
}

var recordValidator = validator.New()

// New builds a table from decoded records. Records keep their artifact order.
// Every record must carry a building_id and a finite baseload, and ids must be unique.
func New(records []types.BuildingRecord, columns Columns, source string) (*Table, error) {
	index := make(map[string]int, len(records))
	for i := range records {
		if err := recordValidator.Struct(&records[i]); err != nil {
			return nil, &LoadError{
				Source:  source,
				Message: fmt.Sprintf("invalid record at row %d", i+1),
				Cause:   err,
			}
		}
		if b := records[i].Baseload; math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, &LoadError{
				Source:  source,
				Message: fmt.Sprintf("invalid record at row %d", i+1),
				Cause:   fmt.Errorf("%s is missing or not finite", ColBaseload),
			}
		}
		id := records[i].BuildingID
		if first, exists := index[id]; exists {
			return nil, &DuplicateIDError{BuildingID: id, FirstRow: first + 1, Row: i + 1}
		}
		index[id] = i
	}

	return &Table{
		records: records,
		index:   index,
		columns: columns,
		source:  source,
	}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// At returns the record at position i in artifact order.
func (t *Table) At(i int) types.BuildingRecord {
	return t.records[i]
}

// Lookup returns the record with the given building_id.
func (t *Table) Lookup(id string) (types.BuildingRecord, bool) {
	i, ok := t.index[id]
	if !ok {
		return types.BuildingRecord{}, false
	}
	return t.records[i], true
}

// Columns reports which optional columns the artifact carried.
func (t *Table) Columns() Columns {
	return t.columns
}

// Source describes where the table was loaded from.
func (t *Table) Source() string {
	return t.source
}
