package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/treescope/cli"
	"github.com/grovetools/treescope/config"
	"github.com/grovetools/treescope/errors"
	"github.com/grovetools/treescope/pkg/client"
	"github.com/grovetools/treescope/pkg/paths"
	"github.com/grovetools/treescope/tui/treenav"
)

// viewApp adapts the treenav component into a standalone program.
type viewApp struct {
	nav treenav.Model
}

func (a viewApp) Init() tea.Cmd { return a.nav.Init() }

func (a viewApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	nav, cmd := a.nav.Update(msg)
	a.nav = nav
	return a, cmd
}

func (a viewApp) View() string { return a.nav.View() }

// NewViewCmd creates the `view` command.
func NewViewCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"view",
		"Browse the watched tree interactively",
	)
	cmd.Long = `Launches the interactive tree navigator connected to the treescope
daemon. The view follows live updates: folders you expanded stay
expanded and your selection survives snapshot changes.

Examples:
  # Connect to the local daemon
  treescope view

  # Connect to a daemon on a TCP address
  treescope view --listen tcp:127.0.0.1:7070
`

	cmd.Flags().String("listen", "", "Daemon listen spec to connect to")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		listen := resolveListen(cmd)

		c := client.New(listen)
		defer c.Close()

		if !c.IsRunning() {
			return errors.DaemonNotRunning(listen)
		}

		var typeaheadTimeout = config.DefaultTypeaheadMs
		if cfg, err := cli.LoadConfig(cmd); err == nil {
			typeaheadTimeout = cfg.Typeahead.TimeoutMs
		}

		nav := treenav.New(treenav.Options{
			Client:           c,
			TypeaheadTimeout: millis(typeaheadTimeout),
		})

		p := tea.NewProgram(viewApp{nav: nav}, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			return err
		}
		return nil
	}

	return cmd
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// resolveListen picks the daemon address: flag, then config, then the
// default socket.
func resolveListen(cmd *cobra.Command) string {
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		return listen
	}
	if cfg, err := cli.LoadConfig(cmd); err == nil && cfg.Listen != "" {
		return cfg.Listen
	}
	return "unix:" + paths.SocketPath()
}
