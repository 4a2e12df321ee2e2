package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/table"
)

// settings resolves configuration in order: config file, built-in defaults, environment,
// then flags. overrides apply command-specific flags before validation.
func settings(cmd *cobra.Command, g *globalFlags, overrides ...func(*config.Config)) (*config.Config, error) {
	file := &config.Config{}
	if g.configPath != "" {
		loaded, err := config.LoadConfig(g.configPath)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	cfg := file.MergeWithDefaults(config.Defaults())
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("artifact") {
		cfg.Artifact = g.artifact
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = g.dataDir
	}
	if flags.Changed("plots-dir") {
		cfg.PlotsDir = g.plotsDir
	}
	if g.verbose {
		cfg.Verbose = true
	}
	for _, o := range overrides {
		o(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// openTable loads the predictions artifact named by cfg.
func openTable(ctx context.Context, cfg *config.Config) (*table.Table, error) {
	if cfg.Verbose {
		src := cfg.Artifact
		if src == "" {
			src = "discovery in " + cfg.DataDir
		}
		log.Printf("[table] Loading predictions from %s", src)
	}
	tbl, err := table.Open(ctx, cfg.TableSource())
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}
	return tbl, nil
}
