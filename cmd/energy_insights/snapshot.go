package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/snapshot"
)

func newSnapshotCmd(g *globalFlags) *cobra.Command {
	var (
		url     string
		out     string
		timeout time.Duration
		width   int
		height  int
		user    string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Screenshot a dashboard page with headless Chrome",
		Long:  "Render a dashboard page and save a full-page PNG. DASHBOARD_PASSWORD supplies the basic-auth password for --user.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := snapshot.DefaultOptions()
			opts.Timeout = timeout
			opts.Width, opts.Height = width, height
			opts.User = user
			opts.Password = os.Getenv("DASHBOARD_PASSWORD")
			opts.Verbose = g.verbose

			res, err := snapshot.Capture(cmd.Context(), url, opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, res.Image, 0o644); err != nil {
				return fmt.Errorf("failed to write screenshot: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes): tab %q, %d cluster cards, %d priority rows\n",
				out, len(res.Image), res.Page.ActiveTab, res.Page.Cards, res.Page.Rows)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8501/", "Dashboard page to capture")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Path to output PNG file (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", snapshot.DefaultTimeout, "Capture timeout")
	cmd.Flags().IntVar(&width, "width", 1440, "Viewport width")
	cmd.Flags().IntVar(&height, "height", 900, "Viewport height")
	cmd.Flags().StringVar(&user, "user", "", "Dashboard basic-auth user")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	return cmd
}
