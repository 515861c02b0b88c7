// Package cli wires the connector together and exposes it as commands.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector",
		Short: "Case connector - keeps tags in sync with the case system and posts time to it",
		Long: `connector discovers new cases in the remote case system and registers
them as tags in the time tracking platform. Time groups posted against those
tags are converted into time records on the matching cases.

All settings are read from the environment or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newCursorsCmd())
	return cmd
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
