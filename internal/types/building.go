// Package types provides type definitions for structured data used throughout the energy-insights system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// BuildingRecord is one row of the predictions artifact.
// Optional columns are pointers; nil means the artifact did not carry a value.
type BuildingRecord struct {
	BuildingID            string   `json:"building_id" validate:"required"`
	BuildingType          string   `json:"building_type"`
	Cluster               int      `json:"cluster"`
	IsAnomaly             bool     `json:"is_anomaly"`
	Underperformer        *bool    `json:"underperformer,omitempty"`
	PriorityRank          int      `json:"priority_rank"`
	Baseload              float64  `json:"baseload"`
	WeekendRatio          *float64 `json:"weekend_ratio,omitempty"`
	PredictedWeekendRatio *float64 `json:"predicted_weekend_ratio,omitempty"`
	WeekendGap            *float64 `json:"weekend_gap,omitempty"`
	NightRatio            float64  `json:"night_ratio"`
	AvgConsumption        float64  `json:"avg_consumption"`
	Recommendation        string   `json:"recommendation"`
	ShapJSON              *string  `json:"shap_json,omitempty"`
}

// IsUnderperformer reports the underperformer flag, defaulting to false when absent.
func (r *BuildingRecord) IsUnderperformer() bool {
	return r.Underperformer != nil && *r.Underperformer
}

// BuildingListItem is the projection returned by the building list endpoint.
type BuildingListItem struct {
	BuildingID   string `json:"building_id"`
	BuildingType string `json:"building_type"`
	PriorityRank int    `json:"priority_rank"`
}

// PriorityItem is the projection used in the top-priority list.
type PriorityItem struct {
	BuildingID     string `json:"building_id"`
	BuildingType   string `json:"building_type"`
	Recommendation string `json:"recommendation"`
	PriorityRank   int    `json:"priority_rank"`
}

// BuildingDetail is a full record plus its decoded SHAP attributions.
type BuildingDetail struct {
	BuildingRecord
	ShapValues map[string]float64 `json:"shap_values"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Buildings int    `json:"buildings"`
}
