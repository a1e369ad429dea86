// ABOUTME: Cobra root command and entry point for the leadengine CLI
// ABOUTME: Registers every subcommand and the global config, database, and log flags
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.2.0"

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return NewRootCmd(os.Stderr).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Log output goes to stderr.
func NewRootCmd(stderr io.Writer) *cobra.Command {
	a := newApp(stderr)

	rootCmd := &cobra.Command{
		Use:           "leadengine",
		Short:         "Lead engagement insights for a real-estate CRM",
		Long:          "leadengine tracks leads, tasks, and transactions, turns them into prioritized insights, and watches lead notes for signs a deal has moved.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/leadengine/config.toml)")
	flags.StringVar(&a.flags.dbPath, "db-path", "", "Database path (overrides config)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLeadCmd(a),
		newTaskCmd(a),
		newTxCmd(a),
		newInsightsCmd(a),
		newAdvisoriesCmd(a),
		newMCPCmd(a),
		newTUICmd(a),
		newVizCmd(a),
		newSyncCmd(a),
		newCharmCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leadengine version %s\n", Version)
		},
	}
}
