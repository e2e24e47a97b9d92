package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/treescope/cli"
	"github.com/grovetools/treescope/pkg/client"
	"github.com/grovetools/treescope/pkg/tree"
	"github.com/grovetools/treescope/tui/theme"
)

// NewTreeCmd creates the `tree` command.
func NewTreeCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"tree",
		"Print the current snapshot",
	)
	cmd.Long = `Prints the current tree snapshot once and exits. When the daemon is
running its snapshot is used; otherwise the tree is scanned locally.

Examples:
  # Print the watched tree
  treescope tree

  # Machine-readable output
  treescope tree --json

  # Scan a directory directly, without the daemon
  treescope tree --root /srv/project
`

	cmd.Flags().String("root", "", "Scan this directory instead of asking the daemon")
	cmd.Flags().String("listen", "", "Daemon listen spec to connect to")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger := cli.GetLogger(cmd)

		snap, err := fetchSnapshot(cmd)
		if err != nil {
			return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal snapshot: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		logger.WithField("entries", len(tree.PathSet(snap))).Debug("Rendering snapshot")
		printTree(snap, 0)
		return nil
	}

	return cmd
}

// fetchSnapshot asks the daemon for its snapshot, falling back to a
// local scan when it is not running or --root was given.
func fetchSnapshot(cmd *cobra.Command) (*tree.Node, error) {
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		return scanLocal(cmd, root)
	}

	listen := resolveListen(cmd)
	c := client.New(listen)
	defer c.Close()

	if c.IsRunning() {
		return c.GetTree(context.Background())
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return scanLocal(cmd, cwd)
}

func scanLocal(cmd *cobra.Command, root string) (*tree.Node, error) {
	opts := tree.ScanOptions{}
	if cfg, err := cli.LoadConfig(cmd); err == nil {
		opts.IncludeHidden = cfg.Snapshot.IncludeHidden
		opts.Ignore = cfg.Snapshot.Ignore
	}
	return tree.Scan(root, opts)
}

// printTree renders the snapshot as an indented listing.
func printTree(n *tree.Node, depth int) {
	t := theme.DefaultTheme
	indent := strings.Repeat("  ", depth)

	if n.IsFolder() {
		fmt.Printf("%s%s %s\n", indent, theme.IconFolder, t.Folder.Render(n.Name))
		for _, child := range n.Children {
			printTree(child, depth+1)
		}
		return
	}
	fmt.Printf("%s%s %s\n", indent, theme.IconFile, n.Name)
}
