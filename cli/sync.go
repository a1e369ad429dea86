// ABOUTME: Gmail sync subcommands
// ABOUTME: Runs the OAuth consent flow and imports email activity as lead contact
package cli

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/sync"
)

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull contact activity from Gmail",
	}
	cmd.AddCommand(newSyncAuthCmd(a), newSyncGmailCmd(a))
	return cmd
}

func newSyncAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			oauthConfig, err := sync.GetConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			token, err := sync.Authorize(cmd.Context(), oauthConfig, func(url string) {
				_, _ = fmt.Fprintf(out, "Opening browser for Google authorization...\n")
				_, _ = fmt.Fprintf(out, "If the browser doesn't open, visit:\n%s\n\n", url)
				if err := openBrowser(url); err != nil {
					a.logger.Debug("could not open browser", "err", err)
				}
			})
			if err != nil {
				return err
			}
			if err := sync.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			_, _ = fmt.Fprintf(out, "✓ Authenticated successfully\n")
			_, _ = fmt.Fprintf(out, "✓ Tokens saved to %s\n", sync.TokenPath())
			return nil
		},
	}
}

func newSyncGmailCmd(a *app) *cobra.Command {
	var initial bool
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Log contact on leads you've emailed with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()

			token, err := sync.LoadToken()
			if err != nil {
				return fmt.Errorf("not authorized, run 'leadengine sync auth' first: %w", err)
			}
			client, err := sync.NewGmailClient(ctx, token)
			if err != nil {
				return err
			}

			imp := sync.NewImporter(a.db, a.svc, sync.NewGmailSource(client),
				sync.WithLogger(a.logger),
				sync.WithLookbackDays(a.cfg.Gmail.LookbackDays),
				sync.WithNow(a.clock.Now))
			res, err := imp.Import(ctx, initial)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Scanned %d messages (%d filtered, %d already applied)\n",
				res.Scanned, res.Filtered, res.Skipped)
			_, _ = fmt.Fprintf(out, "✓ Logged contact on %d leads\n", len(res.Touched))

			if len(res.Touched) == 0 {
				return nil
			}
			leads, err := a.svc.ListLeads(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(res.Touched))
			for _, lead := range leads {
				if at, ok := res.Touched[lead.ID]; ok {
					names = append(names, fmt.Sprintf("  %s (%s)", lead.Name, at.Format("2006-01-02")))
				}
			}
			sort.Strings(names)
			for _, n := range names {
				_, _ = fmt.Fprintln(out, n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&initial, "initial", false, "ignore the last sync and scan the full lookback window")
	return cmd
}

// openBrowser attempts to open URL in default browser.
func openBrowser(url string) error {
	var name string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		name = "open"
		args = []string{url}
	case "windows":
		name = "cmd"
		args = []string{"/c", "start", url}
	default:
		name = "xdg-open"
		args = []string{url}
	}
	return exec.Command(name, args...).Start()
}
