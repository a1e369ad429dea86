// ABOUTME: Lead CLI commands
// ABOUTME: Add, list, annotate, and log contact with leads
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func newLeadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lead",
		Aliases: []string{"leads"},
		Short:   "Manage leads",
	}
	cmd.AddCommand(
		newLeadAddCmd(a),
		newLeadListCmd(a),
		newLeadNotesCmd(a),
		newLeadContactCmd(a),
	)
	return cmd
}

func newLeadAddCmd(a *app) *cobra.Command {
	var (
		lead     models.Lead
		priority int
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			lead.Name = args[0]
			if priority != 0 {
				p := priority
				lead.Priority = &p
			}
			saved, err := a.svc.AddLead(cmd.Context(), lead)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Lead added: %s (ID: %s)\n", saved.Name, saved.ID)
			_, _ = fmt.Fprintf(out, "  Status: %s\n", saved.Status)
			if saved.Type != "" {
				_, _ = fmt.Fprintf(out, "  Type: %s\n", saved.Type)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&lead.Email, "email", "", "Email address")
	f.StringVar(&lead.Phone, "phone", "", "Phone number")
	f.StringVar(&lead.Status, "status", "", "Status (new, contacted, qualified, hot, warm, cold, negotiating, waiting, closed, lost)")
	f.StringVar(&lead.Type, "type", "", "Type (buyer, seller, investor, renter, both)")
	f.StringVar(&lead.Notes, "notes", "", "Notes")
	f.IntVar(&priority, "priority", 0, "Priority from 1 (hottest) to 10")
	return cmd
}

func newLeadListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			leads, err := a.svc.ListLeads(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			now := a.svc.Now()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tTYPE\tLAST CONTACT\tID")
			_, _ = fmt.Fprintln(w, "----\t------\t----\t------------\t--")
			shown := 0
			for _, l := range leads {
				if status != "" && l.Status != status {
					continue
				}
				last := "never"
				if l.LastContact != nil {
					last = humanize.RelTime(*l.LastContact, now, "ago", "from now")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.Name, l.Status, dash(l.Type), last, shortID(l.ID))
				shown++
			}
			_ = w.Flush()
			_, _ = fmt.Fprintf(out, "\nTotal: %d lead(s)\n", shown)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show leads with this status")
	return cmd
}

func newLeadNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <lead-id> <notes>",
		Short: "Replace a lead's notes and show any stage advisories they raise",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id, err := a.resolveLead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lead, advisories, err := a.svc.UpdateLeadNotes(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Notes updated for %s\n", lead.Name)
			for _, adv := range advisories {
				_, _ = fmt.Fprintf(out, "⚠ %q suggests %s (advisory %s)\n", adv.MatchedPhrase, engine.StageLabel(adv.SuggestedStatus), adv.ID)
			}
			return nil
		},
	}
}

func newLeadContactCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "contact <lead-id>",
		Short: "Record a contact with a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id, err := a.resolveLead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var when time.Time
			if at != "" {
				when, err = parseDate(at, a.svc.Now().Location())
				if err != nil {
					return err
				}
			}
			lead, err := a.svc.LogContact(cmd.Context(), id, when)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Contact logged for %s at %s\n", lead.Name, lead.LastContact.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "When it happened (YYYY-MM-DD or RFC3339, default now)")
	return cmd
}

func (a *app) resolveLead(ctx context.Context, arg string) (uuid.UUID, error) {
	leads, err := a.svc.ListLeads(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	id, err := resolveID(arg, ids)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lead: %w", err)
	}
	return id, nil
}

// parseDate accepts a calendar date or a full RFC3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
