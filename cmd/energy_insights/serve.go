package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the query API",
		Long: `Load the predictions artifact once and serve it read-only over HTTP.
Set JWT_SECRET to require bearer tokens (see the token command).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings(cmd, g, func(c *config.Config) {
				if cmd.Flags().Changed("port") {
					c.Port = port
				}
			})
			if err != nil {
				return err
			}

			tbl, err := openTable(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var jwtCfg *config.JWTConfig
			if config.JWTEnabled() {
				if jwtCfg, err = config.NewJWTConfig(); err != nil {
					return err
				}
			}

			srv, err := server.New(server.Config{Port: cfg.Port, Service: query.New(tbl), JWT: jwtCfg})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on")
	return cmd
}
