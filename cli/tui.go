// ABOUTME: TUI subcommand
// ABOUTME: Opens the interactive insight board in the alternate screen
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Triage insights and advisories interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdout) {
				return fmt.Errorf("tui needs an interactive terminal")
			}
			if err := a.open(); err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewModel(cmd.Context(), a.svc), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}
