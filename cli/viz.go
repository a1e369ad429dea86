// ABOUTME: Visualization subcommands
// ABOUTME: Renders the pipeline graph and the terminal dashboard
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/viz"
)

func newVizCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Visualize the pipeline",
	}
	cmd.AddCommand(newVizPipelineCmd(a), newVizDashboardCmd(a))
	return cmd
}

func newVizPipelineCmd(a *app) *cobra.Command {
	var (
		detailed bool
		format   string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Render the transaction pipeline as a GraphViz graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var gvFormat graphviz.Format
			switch strings.ToLower(format) {
			case "dot", "":
				gvFormat = graphviz.XDOT
			case "svg":
				gvFormat = graphviz.SVG
			case "png":
				gvFormat = graphviz.PNG
			default:
				return fmt.Errorf("unknown format %q (valid: dot, svg, png)", format)
			}
			if gvFormat == graphviz.PNG && output == "" {
				return fmt.Errorf("--output is required for png")
			}

			if err := a.open(); err != nil {
				return err
			}
			txs, err := a.svc.ListTransactions(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := viz.RenderPipelineGraph(cmd.Context(), w, txs, viz.GraphOptions{Detailed: detailed, Format: gvFormat}); err != nil {
				return err
			}
			if output != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Graph written to %s\n", output)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&detailed, "detailed", false, "Draw each transaction next to its stage")
	f.StringVar(&format, "format", "dot", "Output format: dot, svg, or png")
	f.StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newVizDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show pipeline, volume, and insight totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			snap, _, err := a.svc.Snapshot(ctx)
			if err != nil {
				return err
			}
			insights, err := a.svc.GenerateInsights(ctx)
			if err != nil {
				return err
			}
			advisories, err := a.svc.ScanAdvisories(ctx)
			if err != nil {
				return err
			}
			stats := viz.BuildDashboard(snap, insights, advisories, a.svc.Now())
			_, _ = fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
			return nil
		},
	}
}
