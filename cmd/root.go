// Package cmd defines the CLI commands for the collector executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Scrapes municipal shelter sites into a canonical record set",
		Long: `collector periodically scrapes a municipal animal-shelter site,
normalizes the extracted records into the canonical schema, computes the
delta against the previous run's snapshot, and writes the result for the
downstream repository.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.AddCommand(newCollectCmd())
	return cmd
}

// Execute is the process entry point: exit 0 on a fully successful run, 1 on
// any failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
