package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/treescope/cli"
	"github.com/grovetools/treescope/config"
	"github.com/grovetools/treescope/errors"
	"github.com/grovetools/treescope/internal/broadcast"
	"github.com/grovetools/treescope/internal/daemon/pidfile"
	"github.com/grovetools/treescope/internal/server"
	"github.com/grovetools/treescope/internal/watch"
	"github.com/grovetools/treescope/logging"
	"github.com/grovetools/treescope/pkg/paths"
	"github.com/grovetools/treescope/pkg/tree"
)

// NewServeCmd returns the daemon command with subcommands.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Manage the treescope daemon",
		Long:  "Run and control the daemon that watches the tree and serves snapshots.",
	}

	cmd.AddCommand(newServeStartCmd())
	cmd.AddCommand(newServeStopCmd())
	cmd.AddCommand(newServeStatusCmd())

	return cmd
}

// resolveServeConfig merges config file values with command flags.
// Flags win; a missing config file falls back to defaults around the
// working directory.
func resolveServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeConfigNotFound {
			return nil, err
		}
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return nil, cwdErr
		}
		cfg = &config.Config{Root: cwd}
		cfg.SetDefaults()
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Root = root
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}
	if debounce, _ := cmd.Flags().GetInt("debounce"); debounce > 0 {
		cfg.Watch.DebounceMs = debounce
	}
	if cfg.Listen == "" {
		cfg.Listen = "unix:" + paths.SocketPath()
	}
	return cfg, nil
}

func newServeStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long: `Start the treescope daemon in foreground mode.

Examples:
  # Watch the current project
  treescope serve start

  # Watch a specific tree on a TCP port
  treescope serve start --root /srv/project --listen tcp:127.0.0.1:7070
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("treescoped")

			cfg, err := resolveServeConfig(cmd)
			if err != nil {
				return err
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create state directories: %w", err)
			}

			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			registry := broadcast.New(logging.NewLogger("broadcast"))
			svc := watch.NewService(watch.Config{
				Root:         cfg.Root,
				Debounce:     cfg.Debounce(),
				RetryBackoff: cfg.RetryBackoff(),
				Scan: tree.ScanOptions{
					IncludeHidden: cfg.Snapshot.IncludeHidden,
					Ignore:        cfg.Snapshot.Ignore,
				},
			}, registry, logging.NewLogger("watch"))
			defer svc.Close()

			srv := server.New(svc, logger)
			srv.SetRunningConfig(&server.RunningConfig{
				Root:       cfg.Root,
				Debounce:   cfg.Debounce(),
				StartedAt:  time.Now(),
				ListenAddr: cfg.Listen,
			})

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
				svc.Close()

				// Release before exit: the deferred release never runs
				// when we exit from the handler.
				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			logger.WithField("pid", os.Getpid()).
				WithField("root", cfg.Root).
				Info("Starting daemon")
			if err := srv.ListenAndServe(cfg.Listen); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("root", "", "Directory tree to watch")
	cmd.Flags().String("listen", "", "Listen spec: unix:<path> or tcp:<addr>")
	cmd.Flags().Int("debounce", 0, "Debounce quiet period in milliseconds")

	return cmd
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if running {
				fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
			} else {
				fmt.Println("Stopped")
				os.Exit(1) // non-zero for stopped state, useful in scripts
			}
			return nil
		},
	}
}
