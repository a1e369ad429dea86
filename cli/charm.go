// ABOUTME: Charm KV subcommands
// ABOUTME: Links this device and reports sync state for the exclusion backend
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/charm"
)

func newCharmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charm",
		Short: "Sync dismissed and accepted insights through Charm",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "link",
			Short: "Link this device to Charm Cloud",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := a.openCharm()
				if err != nil {
					return err
				}
				return charm.Link(cmd.OutOrStdout(), client)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show Charm sync status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := a.openCharm()
				if err != nil {
					return err
				}
				return charm.Status(cmd.OutOrStdout(), client)
			},
		},
	)
	return cmd
}
