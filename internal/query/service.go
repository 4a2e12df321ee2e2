// Package query implements the read-only lookups and aggregations served by the API.
package query

import (
	"sort"

	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
)

// TopPriorityLimit is the length of the top-priority list in the summary.
const TopPriorityLimit = 10

// Service answers queries over a loaded predictions table.
type Service struct {
	table *table.Table
}

// New creates a query service over t. The table must not be mutated afterwards.
func New(t *table.Table) *Service {
	return &Service{table: t}
}

// Columns reports which optional columns the underlying table carries.
func (s *Service) Columns() table.Columns {
	return s.table.Columns()
}

// Health reports liveness and the number of loaded buildings.
func (s *Service) Health() types.HealthStatus {
	return types.HealthStatus{Status: "ok", Buildings: s.table.Len()}
}

// ListBuildings returns the id, type and rank of every record in table order.
func (s *Service) ListBuildings() []types.BuildingListItem {
	items := make([]types.BuildingListItem, 0, s.table.Len())
	for i := 0; i < s.table.Len(); i++ {
		rec := s.table.At(i)
		items = append(items, types.BuildingListItem{
			BuildingID:   rec.BuildingID,
			BuildingType: rec.BuildingType,
			PriorityRank: rec.PriorityRank,
		})
	}
	return items
}

// GetBuilding returns a record and its decoded SHAP attributions.
func (s *Service) GetBuilding(id string) (*types.BuildingDetail, error) {
	rec, ok := s.table.Lookup(id)
	if !ok {
		return nil, &BuildingNotFoundError{BuildingID: id}
	}
	return &types.BuildingDetail{
		BuildingRecord: rec,
		ShapValues:     ParseShap(rec.ShapJSON),
	}, nil
}

// GetSummary computes the portfolio overview.
func (s *Service) GetSummary() *types.Summary {
	summary := &types.Summary{
		TotalBuildings: s.table.Len(),
		Clusters:       make(map[int]int),
		TopPriority:    s.TopPriority(TopPriorityLimit),
	}
	for i := 0; i < s.table.Len(); i++ {
		rec := s.table.At(i)
		if rec.IsAnomaly {
			summary.Anomalies++
		}
		if rec.IsUnderperformer() {
			summary.Underperformers++
		}
		summary.Clusters[rec.Cluster]++
	}
	return summary
}

// TopPriority returns the n most urgent records, ascending by priority_rank.
// Records sharing a rank are ordered by building_id.
func (s *Service) TopPriority(n int) []types.PriorityItem {
	if n <= 0 {
		return []types.PriorityItem{}
	}

	order := make([]int, s.table.Len())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := s.table.At(order[a]), s.table.At(order[b])
		if ra.PriorityRank != rb.PriorityRank {
			return ra.PriorityRank < rb.PriorityRank
		}
		return ra.BuildingID < rb.BuildingID
	})

	if n > len(order) {
		n = len(order)
	}
	items := make([]types.PriorityItem, 0, n)
	for _, i := range order[:n] {
		rec := s.table.At(i)
		items = append(items, types.PriorityItem{
			BuildingID:     rec.BuildingID,
			BuildingType:   rec.BuildingType,
			Recommendation: rec.Recommendation,
			PriorityRank:   rec.PriorityRank,
		})
	}
	return items
}

// GetCluster aggregates the members of one cluster.
// AvgWeekendRatio is nil when the artifact has no weekend_ratio column or no member has a value.
// AvgConsumption is nil when the artifact has no avg_consumption column.
func (s *Service) GetCluster(clusterID int) (*types.ClusterStats, error) {
	stats := &types.ClusterStats{ClusterID: clusterID, Buildings: []string{}}

	var baseloadSum, weekendSum, consumptionSum float64
	var weekendCount int
	for i := 0; i < s.table.Len(); i++ {
		rec := s.table.At(i)
		if rec.Cluster != clusterID {
			continue
		}
		stats.Count++
		stats.Buildings = append(stats.Buildings, rec.BuildingID)
		baseloadSum += rec.Baseload
		consumptionSum += rec.AvgConsumption
		if rec.WeekendRatio != nil {
			weekendSum += *rec.WeekendRatio
			weekendCount++
		}
	}

	if stats.Count == 0 {
		return nil, &ClusterNotFoundError{ClusterID: clusterID}
	}

	stats.AvgBaseload = baseloadSum / float64(stats.Count)
	if s.table.Columns().WeekendRatio && weekendCount > 0 {
		avg := weekendSum / float64(weekendCount)
		stats.AvgWeekendRatio = &avg
	}
	if s.table.Columns().AvgConsumption {
		avg := consumptionSum / float64(stats.Count)
		stats.AvgConsumption = &avg
	}
	return stats, nil
}

// ClusterIDs returns the distinct cluster ids in ascending order.
func (s *Service) ClusterIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for i := 0; i < s.table.Len(); i++ {
		c := s.table.At(i).Cluster
		if !seen[c] {
			seen[c] = true
			ids = append(ids, c)
		}
	}
	sort.Ints(ids)
	return ids
}

// AllClusterStats returns stats for every cluster, ordered by cluster id.
func (s *Service) AllClusterStats() []types.ClusterStats {
	ids := s.ClusterIDs()
	out := make([]types.ClusterStats, 0, len(ids))
	for _, id := range ids {
		stats, err := s.GetCluster(id)
		if err != nil {
			continue
		}
		out = append(out, *stats)
	}
	return out
}
