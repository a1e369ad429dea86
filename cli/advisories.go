// ABOUTME: Status advisory CLI commands
// ABOUTME: Lists stage suggestions found in lead notes and applies or dismisses them
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func newAdvisoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "advisories",
		Aliases: []string{"advisory"},
		Short:   "Review stage changes suggested by lead notes",
	}
	cmd.AddCommand(
		newAdvisoriesListCmd(a),
		newAdvisoriesApplyCmd(a),
		newAdvisoriesDismissCmd(a),
	)
	return cmd
}

func newAdvisoriesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending advisories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			advisories, err := a.svc.ScanAdvisories(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(advisories) == 0 {
				_, _ = fmt.Fprintln(out, "✓ No advisories")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "LEAD\tPHRASE\tSUGGESTS\tACTION\tID")
			_, _ = fmt.Fprintln(w, "----\t------\t--------\t------\t--")
			for _, adv := range advisories {
				action := "advance"
				if adv.Action == models.AdvisoryActionCreateTransaction {
					action = "new transaction"
				}
				_, _ = fmt.Fprintf(w, "%s\t%q\t%s\t%s\t%s\n", adv.LeadName, adv.MatchedPhrase, engine.StageLabel(adv.SuggestedStatus), action, adv.ID)
			}
			_ = w.Flush()
			_, _ = fmt.Fprintf(out, "\nTotal: %d advisory(s)\n", len(advisories))
			return nil
		},
	}
}

func newAdvisoriesApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <advisory-id>",
		Short: "Apply an advisory to its transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			tx, err := a.svc.ApplyAdvisory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s (ID: %s)\n", dash(tx.PropertyAddress), engine.StageLabel(tx.Status), tx.ID)
			return nil
		},
	}
}

func newAdvisoriesDismissCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <advisory-id>",
		Short: "Ignore an advisory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if _, err := a.svc.DismissAdvisory(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Dismissed %s\n", args[0])
			return nil
		},
	}
}
