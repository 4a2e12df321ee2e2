// Package main provides the energy_insights command: the query API, the dashboard and
// supporting tools over a building predictions artifact.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	artifact   string
	dataDir    string
	plotsDir   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "energy_insights",
		Short:         "Building energy insights API and dashboard",
		Long:          "Serves building energy predictions (clusters, anomalies, priority ranks and SHAP drivers) as a JSON API and an HTML dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to JSON config file")
	pf.StringVar(&g.artifact, "artifact", "", "Predictions artifact: file path, s3://bucket/key or postgres:// URL")
	pf.StringVar(&g.dataDir, "data-dir", "", "Directory searched for predictions.parquet, then predictions.csv")
	pf.StringVar(&g.plotsDir, "plots-dir", "", "Directory holding the exploration plots")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newServeCmd(g),
		newDashboardCmd(g),
		newSummaryCmd(g),
		newValidateCmd(g),
		newTokenCmd(),
		newHashPasswordCmd(),
		newSnapshotCmd(g),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
