package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/energy-insights/internal/schemas"
	"github.com/jonathan/energy-insights/internal/types"
	embedded "github.com/jonathan/energy-insights/schemas"
)

// SummaryStatsFile is the statistics file written next to the EDA plots.
const SummaryStatsFile = "summary_stats.json"

// Plot is one known EDA image.
type Plot struct {
	Name    string
	Title   string
	Caption string
	Present bool
}

// knownPlots are the only images served from the plots directory, in display order.
var knownPlots = []Plot{
	{Name: "consumption_distribution.png", Title: "Consumption Distribution",
		Caption: "Most buildings cluster in lower consumption ranges, with some high-energy outliers."},
	{Name: "consumption_by_type.png", Title: "Consumption by Building Type",
		Caption: "Building type significantly impacts energy consumption patterns."},
	{Name: "weekend_vs_weekday.png", Title: "Weekend vs Weekday",
		Caption: "Gap between weekday and weekend consumption indicates shutdown efficiency."},
	{Name: "baseload_vs_peak.png", Title: "Baseload vs Peak",
		Caption: "Buildings with high baseload AND high peak ratio are priority targets."},
	{Name: "correlation_heatmap.png", Title: "Feature Correlations",
		Caption: "Strong correlations help identify which features drive consumption patterns."},
}

// IsKnownPlot reports whether name is one of the servable EDA images.
func IsKnownPlot(name string) bool {
	for _, p := range knownPlots {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ExplorationView backs the data exploration tab.
type ExplorationView struct {
	DirFound   bool
	Dir        string
	Plots      []Plot
	Stats      *types.SummaryStats
	StatsError string
}

// AnyPlots reports whether at least one image is present.
func (v ExplorationView) AnyPlots() bool {
	for _, p := range v.Plots {
		if p.Present {
			return true
		}
	}
	return false
}

// BuildExploration inspects dir for the known plots and the statistics file.
func BuildExploration(dir string) ExplorationView {
	v := ExplorationView{Dir: dir}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return v
	}
	v.DirFound = true

	for _, p := range knownPlots {
		if _, err := os.Stat(filepath.Join(dir, p.Name)); err == nil {
			p.Present = true
		}
		v.Plots = append(v.Plots, p)
	}

	stats, err := LoadSummaryStats(filepath.Join(dir, SummaryStatsFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		v.StatsError = err.Error()
	default:
		v.Stats = stats
	}
	return v
}

// LoadSummaryStats reads and schema-checks the statistics file.
func LoadSummaryStats(path string) (*types.SummaryStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(embedded.SummaryStats, data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var stats types.SummaryStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &stats, nil
}
