package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/dashboard"
	"github.com/jonathan/energy-insights/internal/observability"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/schemas"
	"github.com/jonathan/energy-insights/internal/table"
	embedded "github.com/jonathan/energy-insights/schemas"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the predictions artifact and the exploration statistics",
		Long: `Load the predictions artifact, report which optional columns it carries, flag
unreadable SHAP payloads, check every API document against its schema, and validate
summary_stats.json in the plots directory when present.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings(cmd, g)
			if err != nil {
				return err
			}
			tbl, err := openTable(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			p := observability.NewPrinter(cmd.OutOrStdout())
			p.PrintTable(tbl)

			problems := checkTable(tbl)

			statsPath := filepath.Join(cfg.PlotsDir, dashboard.SummaryStatsFile)
			if _, err := dashboard.LoadSummaryStats(statsPath); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					if cfg.Verbose {
						log.Printf("[validate] %s not present, skipped", statsPath)
					}
				} else {
					problems = append(problems, err.Error())
				}
			}

			p.PrintProblems("ARTIFACT CHECKS", problems)
			if len(problems) > 0 {
				return fmt.Errorf("%d problems found", len(problems))
			}
			return nil
		},
	}
}

// checkTable validates every document the API would serve for tbl.
func checkTable(tbl *table.Table) []string {
	svc := query.New(tbl)
	var problems []string

	check := func(schema, what string, doc any) {
		data, err := json.Marshal(doc)
		if err == nil {
			err = schemas.Validate(schema, data)
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %s", what, strings.TrimSpace(err.Error())))
		}
	}

	check(embedded.Summary, "summary", svc.GetSummary())
	for _, stats := range svc.AllClusterStats() {
		check(embedded.Cluster, fmt.Sprintf("cluster %d", stats.ClusterID), stats)
	}

	for i := 0; i < tbl.Len(); i++ {
		rec := tbl.At(i)
		if rec.ShapJSON != nil && unreadableShap(*rec.ShapJSON) {
			problems = append(problems, fmt.Sprintf("building %s: shap_json is not a feature to number mapping", rec.BuildingID))
		}
		detail, err := svc.GetBuilding(rec.BuildingID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("building %s: %v", rec.BuildingID, err))
			continue
		}
		check(embedded.Building, "building "+rec.BuildingID, detail)
	}
	return problems
}

// unreadableShap reports a payload that decodes to nothing even though it is not empty.
func unreadableShap(raw string) bool {
	if len(query.ParseShap(&raw)) > 0 {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(raw), &obj) != nil || len(obj) > 0
}
