// Package clusters turns per-cluster statistics into human-readable categories.
package clusters

import (
	"sort"

	"github.com/jonathan/energy-insights/internal/types"
)

// Category is one of the three operating profiles a cluster can be assigned.
type Category string

const (
	HighBaseload Category = "high_baseload"
	Standard     Category = "standard"
	Efficient    Category = "efficient"
)

// Description is the static copy shown on a cluster card.
type Description struct {
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
}

var descriptions = map[Category]Description{
	HighBaseload: {
		Category:    HighBaseload,
		Name:        "High Baseload (24/7 Operators)",
		Description: "Buildings with consistently high energy use, even during off-hours.",
		Action:      "Priority targets for energy audits and demand-side management programs.",
	},
	Efficient: {
		Category:    Efficient,
		Name:        "Efficient Buildings",
		Description: "Well-managed buildings with good weekend/night shutdown patterns.",
		Action:      "Use as benchmarks. Document best practices for other buildings.",
	},
	Standard: {
		Category:    Standard,
		Name:        "Standard Operations",
		Description: "Typical consumption patterns with some optimization potential.",
		Action:      "Secondary priority for retro-commissioning programs.",
	},
}

// Describe returns the card copy for a category. Unknown categories get the standard copy.
func Describe(c Category) Description {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return descriptions[Standard]
}

// Label ranks clusters by descending mean baseload and collapses the ranking into
// three buckets: the first is HighBaseload, the last is Efficient, the rest Standard.
// A lone cluster is HighBaseload. Equal means rank the lower cluster id first.
func Label(stats []types.ClusterStats) map[int]Category {
	ranked := make([]types.ClusterStats, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].AvgBaseload != ranked[j].AvgBaseload {
			return ranked[i].AvgBaseload > ranked[j].AvgBaseload
		}
		return ranked[i].ClusterID < ranked[j].ClusterID
	})

	labels := make(map[int]Category, len(ranked))
	for i, s := range ranked {
		switch {
		case i == 0:
			labels[s.ClusterID] = HighBaseload
		case i == len(ranked)-1:
			labels[s.ClusterID] = Efficient
		default:
			labels[s.ClusterID] = Standard
		}
	}
	return labels
}

// LabelFor returns the category of one cluster, or Standard if it is not in stats.
func LabelFor(clusterID int, stats []types.ClusterStats) Category {
	if c, ok := Label(stats)[clusterID]; ok {
		return c
	}
	return Standard
}
