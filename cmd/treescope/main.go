package main

import (
	"os"

	"github.com/grovetools/treescope/cmd"
	"github.com/grovetools/treescope/tui"
)

func main() {
	tui.InitializeTUI()

	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
