package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/treescope/cli"
	"github.com/grovetools/treescope/pkg/paths"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"logs",
		"Show daemon logs",
	)
	cmd.Long = `Prints log output from the treescope daemon.

Examples:
  # Show the latest daemon log
  treescope logs

  # Follow log output
  treescope logs -f

  # Show only the last 50 lines
  treescope logs --tail 50
`

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of the log")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logFile, err := latestLogFile(paths.LogDir())
		if err != nil {
			return err
		}

		follow, _ := cmd.Flags().GetBool("follow")
		tailN, _ := cmd.Flags().GetInt("tail")

		if !follow {
			return printLogFile(logFile, tailN)
		}

		t, err := tail.TailFile(logFile, tail.Config{
			Follow: true,
			ReOpen: true,
			Logger: tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("cannot tail %s: %w", logFile, err)
		}
		defer t.Cleanup()

		for line := range t.Lines {
			if line.Err != nil {
				continue
			}
			fmt.Println(line.Text)
		}
		return nil
	}

	return cmd
}

// latestLogFile returns the most recent daemon log under dir.
func latestLogFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("no daemon logs found in %s: %w", dir, err)
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, e.Name())
		}
	}
	if len(logs) == 0 {
		return "", fmt.Errorf("no daemon logs found in %s", dir)
	}

	// Filenames carry the date (<component>-<date>.log), so the last
	// one lexicographically is the newest.
	sort.Strings(logs)
	return filepath.Join(dir, logs[len(logs)-1]), nil
}

// printLogFile prints a log file, optionally only its last n lines.
func printLogFile(path string, tailN int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if tailN < 0 {
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
		return scanner.Err()
	}

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > tailN {
			lines = lines[1:]
		}
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return scanner.Err()
}
