// ABOUTME: Task CLI commands
// ABOUTME: Add, list, and complete follow-up tasks
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskCompleteCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var priority, due, lead string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			task := models.Task{Title: args[0], Priority: priority}
			if due != "" {
				d, err := parseDate(due, a.svc.Now().Location())
				if err != nil {
					return err
				}
				task.DueDate = d
			}
			if lead != "" {
				id, err := a.resolveLead(cmd.Context(), lead)
				if err != nil {
					return err
				}
				task.LeadID = &id
			}
			saved, err := a.svc.AddTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Task added: %s (ID: %s)\n  Due: %s\n  Priority: %s\n",
				saved.Title, saved.ID, saved.DueDate.Format("2006-01-02"), saved.Priority)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&priority, "priority", "", "Priority: high, medium, or low (default medium)")
	f.StringVar(&due, "due", "", "Due date YYYY-MM-DD (default today)")
	f.StringVar(&lead, "lead", "", "Lead id or id prefix")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			tasks, err := a.svc.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			today := engine.StartOfDay(a.svc.Now())

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TITLE\tDUE\tPRIORITY\tSTATUS\tID")
			_, _ = fmt.Fprintln(w, "-----\t---\t--------\t------\t--")
			shown, overdue := 0, 0
			for _, t := range tasks {
				if !all && t.IsCompleted() {
					continue
				}
				marker := ""
				if t.IsOverdue(today) {
					marker = " ⚠"
					overdue++
				}
				_, _ = fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", t.Title, marker, t.DueDate.Format("2006-01-02"), t.Priority, t.Status, shortID(t.ID))
				shown++
			}
			_ = w.Flush()
			_, _ = fmt.Fprintf(out, "\nTotal: %d task(s), %d overdue\n", shown, overdue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	return cmd
}

func newTaskCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id, err := a.resolveTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			task, err := a.svc.CompleteTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Completed: %s\n", task.Title)
			return nil
		},
	}
}

func (a *app) resolveTask(ctx context.Context, arg string) (uuid.UUID, error) {
	tasks, err := a.svc.ListTasks(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	id, err := resolveID(arg, ids)
	if err != nil {
		return uuid.Nil, fmt.Errorf("task: %w", err)
	}
	return id, nil
}
