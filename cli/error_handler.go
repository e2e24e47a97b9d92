package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/treescope/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a treescope.yml or pass --root.\n")
		return err

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(os.Stderr, "❌ The treescope daemon is not running.\n")
		fmt.Fprintf(os.Stderr, "Start it with 'treescope serve start'.\n")
		return err

	case errors.ErrCodeWatchFailure:
		if tsErr, ok := err.(*errors.TreescopeError); ok {
			fmt.Fprintf(os.Stderr, "❌ Watching '%v' failed\n", tsErr.Details["root"])
			fmt.Fprintf(os.Stderr, "Check that the directory exists and is readable.\n")
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if tsErr, ok := err.(*errors.TreescopeError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", tsErr.ToJSON())
			}
		}
		return err
	}
}
