//nolint:revive // types is a standard Go package name pattern
package types

// Summary is the portfolio-level overview.
type Summary struct {
	TotalBuildings  int            `json:"total_buildings"`
	Anomalies       int            `json:"anomalies"`
	Underperformers int            `json:"underperformers"`
	Clusters        map[int]int    `json:"clusters"`
	TopPriority     []PriorityItem `json:"top_priority"`
}

// AnomalyShare returns anomalies as a percentage of all buildings, or 0 for an empty table.
func (s *Summary) AnomalyShare() float64 {
	if s.TotalBuildings == 0 {
		return 0
	}
	return float64(s.Anomalies) / float64(s.TotalBuildings) * 100
}

// ClusterStats summarizes the members of one cluster. It is derived per query and never stored.
type ClusterStats struct {
	ClusterID       int      `json:"cluster_id"`
	Count           int      `json:"count"`
	AvgBaseload     float64  `json:"avg_baseload"`
	AvgWeekendRatio *float64 `json:"avg_weekend_ratio"`
	AvgConsumption  *float64 `json:"avg_consumption,omitempty"`
	Buildings       []string `json:"buildings"`
}

// ShapContribution is one feature attribution, used for ordered chart rendering.
type ShapContribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// SummaryStats mirrors the summary_stats.json file written next to the EDA plots.
type SummaryStats struct {
	AvgConsumptionMean float64 `json:"avg_consumption_mean"`
	BaseloadMean       float64 `json:"baseload_mean"`
	BuildingTypes      int     `json:"building_types"`
}
