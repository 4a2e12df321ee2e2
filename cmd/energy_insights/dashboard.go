package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/client"
	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/dashboard"
	"github.com/jonathan/energy-insights/internal/query"
)

func newDashboardCmd(g *globalFlags) *cobra.Command {
	var (
		port        int
		apiURL      string
		local       bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the HTML dashboard",
		Long: `Serve the overview, data exploration and building explorer tabs.
By default the dashboard reads from the query API at --api-url. With --local it loads
the predictions artifact itself and needs no API. Set ENERGY_API_TOKEN when the API
requires bearer tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings(cmd, g, func(c *config.Config) {
				if cmd.Flags().Changed("port") {
					c.DashboardPort = port
				}
				if cmd.Flags().Changed("api-url") {
					c.APIURL = apiURL
				}
			})
			if err != nil {
				return err
			}

			var src dashboard.Source
			if local {
				tbl, err := openTable(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				src = dashboard.NewLocalSource(query.New(tbl))
			} else {
				c, err := client.New(cfg.APIURL, &client.Options{
					Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
					UserAgent: client.DefaultUserAgent,
					Token:     os.Getenv("ENERGY_API_TOKEN"),
				})
				if err != nil {
					return err
				}
				if _, err := c.Health(cmd.Context()); err != nil {
					log.Printf("[dashboard] API not reachable yet: %v", err)
				}
				src = c
			}

			d, err := dashboard.New(dashboard.Options{
				Port:               cfg.DashboardPort,
				Source:             src,
				PlotsDir:           cfg.PlotsDir,
				User:               cfg.DashboardUser,
				PasswordHash:       cfg.DashboardPasswordHash,
				ClusterConcurrency: concurrency,
			})
			if err != nil {
				return fmt.Errorf("failed to create dashboard: %w", err)
			}
			return d.Start(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", config.DefaultDashboardPort, "Port to listen on")
	cmd.Flags().StringVar(&apiURL, "api-url", config.DefaultAPIURL, "Query API base URL")
	cmd.Flags().BoolVar(&local, "local", false, "Read the artifact in-process instead of calling the API")
	cmd.Flags().IntVar(&concurrency, "cluster-concurrency", dashboard.DefaultClusterConcurrency, "Parallel cluster fetches on the overview")
	return cmd
}
