package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/observability"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/schemas"
	embedded "github.com/jonathan/energy-insights/schemas"
)

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var (
		building string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the portfolio summary and cluster labels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings(cmd, g)
			if err != nil {
				return err
			}
			tbl, err := openTable(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			svc := query.New(tbl)
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := json.MarshalIndent(svc.GetSummary(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode summary: %w", err)
				}
				if err := schemas.Validate(embedded.Summary, data); err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			p := observability.NewPrinter(out)
			p.PrintSummary(svc.GetSummary())
			p.PrintClusters(svc.AllClusterStats())

			if building != "" {
				b, err := svc.GetBuilding(building)
				if err != nil {
					return err
				}
				p.PrintBuilding(b)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&building, "building", "b", "", "Also print one building's detail")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
