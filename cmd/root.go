// Package cmd assembles the treescope CLI.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/treescope/cli"
)

// NewRootCmd builds the treescope root command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"treescope",
		"Live directory tree viewer",
	)
	rootCmd.Long = `Treescope watches a directory tree and streams structural changes to
connected clients. The daemon debounces filesystem events, re-scans the
tree, and broadcasts a fresh snapshot only when the visible shape
changed. The TUI mirrors the snapshot while preserving your expansion
and selection state across updates.`

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewViewCmd())
	rootCmd.AddCommand(NewTreeCmd())
	rootCmd.AddCommand(NewLogsCmd())
	rootCmd.AddCommand(NewVersionCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)

	return rootCmd
}
