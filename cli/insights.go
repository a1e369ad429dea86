// ABOUTME: Insight CLI commands
// ABOUTME: Lists the prioritized insight feed and records accept, dismiss, and restore
package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func newInsightsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "insights",
		Aliases: []string{"insight"},
		Short:   "Show and act on engagement insights",
	}
	cmd.AddCommand(
		newInsightsListCmd(a),
		newInsightsAcceptCmd(a),
		newInsightsDismissCmd(a),
		newInsightsRestoreCmd(a),
	)
	return cmd
}

func kindMarker(kind string) string {
	switch kind {
	case models.KindUrgent:
		return "!!"
	case models.KindWarning:
		return "⚠"
	case models.KindOpportunity:
		return "★"
	case models.KindMilestone:
		return "◆"
	default:
		return "•"
	}
}

// filterByRule keeps the insights raised by rule. An empty rule keeps all.
func filterByRule(insights []models.Insight, rule string) ([]models.Insight, error) {
	if rule == "" {
		return insights, nil
	}
	tags := engine.DefaultCatalog.Tags()
	if !slices.Contains(tags, rule) {
		return nil, fmt.Errorf("unknown rule %q (known: %s)", rule, strings.Join(tags, ", "))
	}
	var out []models.Insight
	for _, in := range insights {
		if in.Rule == rule {
			out = append(out, in)
		}
	}
	return out, nil
}

func newInsightsListCmd(a *app) *cobra.Command {
	var (
		all  bool
		rule string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live insights, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			var (
				insights []models.Insight
				err      error
			)
			if all {
				insights, err = a.svc.GenerateAllInsights(cmd.Context())
			} else {
				insights, err = a.svc.GenerateInsights(cmd.Context())
			}
			if err != nil {
				return err
			}
			if insights, err = filterByRule(insights, rule); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(insights) == 0 {
				_, _ = fmt.Fprintln(out, "✓ Nothing needs attention")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "\tP\tINSIGHT\tACTION\tID")
			for _, in := range insights {
				title := in.Title
				if in.Dismissed {
					title += " (dismissed)"
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", kindMarker(in.Kind), in.Priority, title, dash(in.ActionLabel), in.ID)
			}
			_ = w.Flush()
			_, _ = fmt.Fprintf(out, "\nTotal: %d insight(s)\n", len(insights))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include dismissed insights")
	cmd.Flags().StringVar(&rule, "rule", "", "Only show insights from this rule (e.g. cold, hot, overdue)")
	return cmd
}

func newInsightsAcceptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <insight-id>",
		Short: "Turn an insight into a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			task, err := a.svc.AcceptInsight(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Task created: %s (due %s, %s priority)\n",
				task.Title, task.DueDate.Format("2006-01-02"), task.Priority)
			return nil
		},
	}
}

func newInsightsDismissCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <insight-id>",
		Short: "Hide an insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if _, err := a.svc.DismissInsight(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Dismissed %s\n", args[0])
			return nil
		},
	}
}

func newInsightsRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <insight-id>",
		Short: "Bring back a dismissed insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if _, err := a.svc.RestoreInsight(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored %s\n", args[0])
			return nil
		},
	}
}
