// Package observability provides formatted console output for the CLI commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/energy-insights/internal/clusters"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/table"
	"github.com/jonathan/energy-insights/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes boxed reports
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSummary outputs the portfolio metrics and the head of the priority list.
func (p *Printer) PrintSummary(summary *types.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Buildings:        %d\n", summary.TotalBuildings))
	sb.WriteString(fmt.Sprintf("Anomalies:        %d (%.1f%%)\n", summary.Anomalies, summary.AnomalyShare()))
	sb.WriteString(fmt.Sprintf("Underperformers:  %d\n", summary.Underperformers))
	sb.WriteString(fmt.Sprintf("Clusters:         %d\n", len(summary.Clusters)))

	if len(summary.TopPriority) > 0 {
		sb.WriteString("\nTop priority:\n")
		count := min(len(summary.TopPriority), maxItemsToShow)
		for i := 0; i < count; i++ {
			item := summary.TopPriority[i]
			sb.WriteString(fmt.Sprintf("  #%d  %s (%s)\n", item.PriorityRank, item.BuildingID, item.BuildingType))
		}
		if len(summary.TopPriority) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.TopPriority)-maxItemsToShow))
		}
	}

	p.printBox("PORTFOLIO SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintClusters outputs one entry per cluster with its label.
func (p *Printer) PrintClusters(stats []types.ClusterStats) {
	if len(stats) == 0 {
		return
	}

	labels := clusters.Label(stats)
	var sb strings.Builder
	for i, s := range stats {
		d := clusters.Describe(labels[s.ClusterID])
		sb.WriteString(fmt.Sprintf("Cluster %d: %s\n", s.ClusterID, d.Name))
		sb.WriteString(fmt.Sprintf("    %d buildings, baseload %.1f kWh", s.Count, s.AvgBaseload))
		if s.AvgWeekendRatio != nil {
			sb.WriteString(fmt.Sprintf(", weekend %.2f", *s.AvgWeekendRatio))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("    %s\n", d.Action))
		if i < len(stats)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CLUSTERS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBuilding outputs one building and its largest SHAP contributions.
func (p *Printer) PrintBuilding(b *types.BuildingDetail) {
	if b == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Building: %s (%s)\n", b.BuildingID, b.BuildingType))
	sb.WriteString(fmt.Sprintf("Rank:     #%d\n", b.PriorityRank))
	sb.WriteString(fmt.Sprintf("Cluster:  %d\n", b.Cluster))
	sb.WriteString(fmt.Sprintf("Anomaly:  %t\n", b.IsAnomaly))
	sb.WriteString(fmt.Sprintf("Baseload: %.1f kWh\n", b.Baseload))
	if b.WeekendGap != nil {
		sb.WriteString(fmt.Sprintf("Weekend gap: %+.2f\n", *b.WeekendGap))
	}

	contributions := query.SortContributions(b.ShapValues)
	if len(contributions) > 0 {
		sb.WriteString("\nDrivers:\n")
		count := min(len(contributions), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := contributions[i]
			mark := "↓"
			if c.Value > 0 {
				mark = "↑"
			}
			sb.WriteString(fmt.Sprintf("  %s %-28s %+.3f\n", mark, c.Feature, c.Value))
		}
		if len(contributions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(contributions)-maxItemsToShow))
		}
	}

	if b.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", b.Recommendation))
	}

	p.printBox("BUILDING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTable outputs what an artifact load found.
func (p *Printer) PrintTable(t *table.Table) {
	if t == nil {
		return
	}

	cols := t.Columns()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s\n", t.Source()))
	sb.WriteString(fmt.Sprintf("Rows:   %d\n\n", t.Len()))
	sb.WriteString("Optional columns:\n")
	for _, c := range []struct {
		name    string
		present bool
	}{
		{table.ColUnderperformer, cols.Underperformer},
		{table.ColWeekendRatio, cols.WeekendRatio},
		{table.ColPredictedWeekendRatio, cols.PredictedWeekendRatio},
		{table.ColWeekendGap, cols.WeekendGap},
		{table.ColNightRatio, cols.NightRatio},
		{table.ColAvgConsumption, cols.AvgConsumption},
		{table.ColRecommendation, cols.Recommendation},
		{table.ColShapJSON, cols.ShapJSON},
	} {
		mark := "✗"
		if c.present {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, c.name))
	}

	p.printBox("PREDICTIONS TABLE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProblems outputs validation problems, or a single OK line when there are none.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProblems(title string, problems []string) {
	if len(problems) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ "+title+": OK")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d problems:\n\n", len(problems)))
	for i, msg := range problems {
		sb.WriteString(fmt.Sprintf("⚠ %s", msg))
		if i < len(problems)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(title, sb.String())
}
