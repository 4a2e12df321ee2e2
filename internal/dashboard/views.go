package dashboard

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jonathan/energy-insights/internal/clusters"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/types"
)

// WeekendGapThreshold is the gap above which weekend efficiency is flagged.
const WeekendGapThreshold = 0.1

// Tab identifies the active navigation entry.
type Tab string

const (
	TabOverview    Tab = "overview"
	TabExploration Tab = "exploration"
	TabExplorer    Tab = "explorer"
)

// page is the data every template receives.
type page struct {
	Title  string
	Tab    Tab
	Source string
	Body   any
}

// OverviewView backs the overview tab.
type OverviewView struct {
	Total           int
	Anomalies       int
	AnomalyShare    float64
	Underperformers int
	ClusterCount    int
	Cards           []ClusterCard
	Priority        PriorityTable
}

// ClusterCard is one cluster panel. Stats is nil when the cluster could not be fetched.
type ClusterCard struct {
	ClusterID int
	Count     int
	Label     clusters.Description
	Stats     *types.ClusterStats
}

// Available reports whether the card has stats to show.
func (c ClusterCard) Available() bool { return c.Stats != nil }

// AvgBaseload formats the mean baseload in kWh.
func (c ClusterCard) AvgBaseload() string {
	if c.Stats == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f kWh", c.Stats.AvgBaseload)
}

// AvgWeekendRatio formats the mean weekend ratio.
func (c ClusterCard) AvgWeekendRatio() string {
	if c.Stats == nil {
		return "n/a"
	}
	return formatOptional(c.Stats.AvgWeekendRatio, "%.2f")
}

// PriorityTable is the sortable top-priority table.
type PriorityTable struct {
	Rows    []types.PriorityItem
	Sort    string
	Order   string
	Columns []SortColumn
}

// SortColumn is a header link that toggles ordering.
type SortColumn struct {
	Key    string
	Label  string
	Active bool
	Href   string
	Arrow  string
}

// Sortable priority columns, in display order.
const (
	SortRank           = "priority_rank"
	SortBuildingID     = "building_id"
	SortBuildingType   = "building_type"
	SortRecommendation = "recommendation"
)

var priorityColumns = []struct{ key, label string }{
	{SortRank, "Rank"},
	{SortBuildingID, "Building"},
	{SortBuildingType, "Type"},
	{SortRecommendation, "Recommendation"},
}

// NewPriorityTable sorts rows by column and order. Unknown columns fall back to rank,
// unknown orders to ascending.
func NewPriorityTable(rows []types.PriorityItem, column, order string) PriorityTable {
	column, order = normalizeSort(column, order)
	sorted := SortPriority(rows, column, order)

	cols := make([]SortColumn, 0, len(priorityColumns))
	for _, c := range priorityColumns {
		sc := SortColumn{Key: c.key, Label: c.label}
		next := "asc"
		if c.key == column {
			sc.Active = true
			if order == "asc" {
				sc.Arrow = "▲"
				next = "desc"
			} else {
				sc.Arrow = "▼"
			}
		}
		sc.Href = fmt.Sprintf("/?sort=%s&order=%s", c.key, next)
		cols = append(cols, sc)
	}

	return PriorityTable{Rows: sorted, Sort: column, Order: order, Columns: cols}
}

func normalizeSort(column, order string) (string, string) {
	switch column {
	case SortRank, SortBuildingID, SortBuildingType, SortRecommendation:
	default:
		column = SortRank
	}
	if order != "desc" {
		order = "asc"
	}
	return column, order
}

// SortPriority returns a sorted copy of rows. Equal keys keep rank order.
func SortPriority(rows []types.PriorityItem, column, order string) []types.PriorityItem {
	column, order = normalizeSort(column, order)
	out := make([]types.PriorityItem, len(rows))
	copy(out, rows)

	cmp := func(a, b types.PriorityItem) int {
		switch column {
		case SortBuildingID:
			return strings.Compare(a.BuildingID, b.BuildingID)
		case SortBuildingType:
			return strings.Compare(a.BuildingType, b.BuildingType)
		case SortRecommendation:
			return strings.Compare(a.Recommendation, b.Recommendation)
		default:
			return a.PriorityRank - b.PriorityRank
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if c == 0 {
			if out[i].PriorityRank != out[j].PriorityRank {
				return out[i].PriorityRank < out[j].PriorityRank
			}
			return out[i].BuildingID < out[j].BuildingID
		}
		if order == "desc" {
			return c > 0
		}
		return c < 0
	})
	return out
}

// BuildOverview assembles the overview. stats holds whatever cluster fetches succeeded;
// labels are computed over that set only.
func BuildOverview(summary *types.Summary, stats map[int]*types.ClusterStats, sortCol, order string) OverviewView {
	v := OverviewView{
		Total:           summary.TotalBuildings,
		Anomalies:       summary.Anomalies,
		AnomalyShare:    summary.AnomalyShare(),
		Underperformers: summary.Underperformers,
		ClusterCount:    len(summary.Clusters),
		Priority:        NewPriorityTable(summary.TopPriority, sortCol, order),
	}

	known := make([]types.ClusterStats, 0, len(stats))
	for _, s := range stats {
		if s != nil {
			known = append(known, *s)
		}
	}
	labels := clusters.Label(known)

	ids := make([]int, 0, len(summary.Clusters))
	for id := range summary.Clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		card := ClusterCard{ClusterID: id, Count: summary.Clusters[id], Stats: stats[id]}
		category, ok := labels[id]
		if !ok {
			category = clusters.Standard
		}
		card.Label = clusters.Describe(category)
		v.Cards = append(v.Cards, card)
	}
	return v
}

// ExplorerView backs the building explorer tab.
type ExplorerView struct {
	Options       []BuildingOption
	Selected      string
	Message       string
	Building      *types.BuildingDetail
	Cluster       *types.ClusterStats
	Comparison    []ComparisonRow
	Weekend       WeekendEfficiency
	Contributions []types.ShapContribution
}

// BuildingOption is one entry of the building selector.
type BuildingOption struct {
	ID       string
	Label    string
	Selected bool
}

// ComparisonRow compares one metric of a building to its cluster mean.
type ComparisonRow struct {
	Metric   string
	Building string
	Cluster  string
	Delta    string
	// Direction is "up", "down" or "" when there is no delta.
	Direction string
}

// WeekendEfficiency is the weekend block of the explorer.
type WeekendEfficiency struct {
	Actual    string
	Predicted string
	Gap       string
	// Flag is "bad" above WeekendGapThreshold, "good" otherwise, "" when the gap is unknown.
	Flag string
}

// BuildingOptions lists top-priority buildings as "#rank - id (type)".
func BuildingOptions(top []types.PriorityItem, selected string) []BuildingOption {
	out := make([]BuildingOption, 0, len(top))
	for _, p := range top {
		out = append(out, BuildingOption{
			ID:       p.BuildingID,
			Label:    fmt.Sprintf("#%d - %s (%s)", p.PriorityRank, p.BuildingID, p.BuildingType),
			Selected: p.BuildingID == selected,
		})
	}
	return out
}

// BuildExplorer fills the detail panels for one building. cluster may be nil.
func BuildExplorer(b *types.BuildingDetail, cluster *types.ClusterStats) ExplorerView {
	v := ExplorerView{
		Building:      b,
		Cluster:       cluster,
		Comparison:    Compare(b, cluster),
		Weekend:       Weekend(&b.BuildingRecord),
		Contributions: query.SortContributions(b.ShapValues),
	}
	return v
}

// Compare builds the building-vs-cluster rows. Without cluster stats only the building
// column is filled.
func Compare(b *types.BuildingDetail, cluster *types.ClusterStats) []ComparisonRow {
	var (
		clusterConsumption, clusterBaseload, clusterWeekend *float64
	)
	if cluster != nil {
		clusterConsumption = cluster.AvgConsumption
		clusterBaseload = &cluster.AvgBaseload
		clusterWeekend = cluster.AvgWeekendRatio
	}
	consumption := b.AvgConsumption
	baseload := b.Baseload
	return []ComparisonRow{
		compareRow("Avg Consumption (kWh)", &consumption, clusterConsumption, "%.1f"),
		compareRow("Baseload (kWh)", &baseload, clusterBaseload, "%.1f"),
		compareRow("Weekend Ratio", b.WeekendRatio, clusterWeekend, "%.2f"),
	}
}

func compareRow(metric string, building, cluster *float64, format string) ComparisonRow {
	row := ComparisonRow{
		Metric:   metric,
		Building: formatOptional(building, format),
		Cluster:  formatOptional(cluster, format),
	}
	if building == nil || cluster == nil {
		return row
	}
	delta := *building - *cluster
	row.Delta = fmt.Sprintf(strings.Replace(format, "%", "%+", 1), delta)
	switch {
	case delta > 0:
		row.Direction = "up"
	case delta < 0:
		row.Direction = "down"
	}
	return row
}

// Weekend formats the weekend efficiency block.
func Weekend(r *types.BuildingRecord) WeekendEfficiency {
	w := WeekendEfficiency{
		Actual:    formatOptional(r.WeekendRatio, "%.2f"),
		Predicted: formatOptional(r.PredictedWeekendRatio, "%.2f"),
		Gap:       formatOptional(r.WeekendGap, "%+.2f"),
	}
	if r.WeekendGap != nil {
		if *r.WeekendGap > WeekendGapThreshold {
			w.Flag = "bad"
		} else {
			w.Flag = "good"
		}
	}
	return w
}

// Recommendation returns the building's recommendation or a placeholder.
func (v ExplorerView) Recommendation() string {
	if v.Building == nil || strings.TrimSpace(v.Building.Recommendation) == "" {
		return "No recommendation"
	}
	return v.Building.Recommendation
}

// ChartURL is the SVG chart address for the selected building.
func (v ExplorerView) ChartURL() string {
	if v.Building == nil {
		return ""
	}
	return ChartPath(v.Building.BuildingID, FormatSVG)
}

// ChartPath builds the chart route for a building id.
func ChartPath(id string, format ChartFormat) string {
	return "/explorer/" + url.PathEscape(id) + "/shap." + string(format)
}

// Underperformer formats the optional flag.
func (v ExplorerView) Underperformer() string {
	if v.Building == nil || v.Building.Underperformer == nil {
		return "n/a"
	}
	return yesNo(*v.Building.Underperformer)
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
