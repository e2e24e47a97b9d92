package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set via -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewVersionCmd creates the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the treescope version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("treescope %s\n", Version)
			fmt.Printf("  Commit:    %s\n", Commit)
			fmt.Printf("  Built:     %s\n", BuildDate)
			fmt.Printf("  Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
