package errors

import (
	"fmt"
)

// IOFailure creates a snapshot read failure error
func IOFailure(path string, err error) *TreescopeError {
	return Wrap(err, ErrCodeIOFailure, fmt.Sprintf("failed to read %s", path)).
		WithDetail("path", path)
}

// WatchFailure creates a filesystem watch failure error
func WatchFailure(root string, err error) *TreescopeError {
	return Wrap(err, ErrCodeWatchFailure, fmt.Sprintf("watch failed for %s", root)).
		WithDetail("root", root)
}

// TransportFailure creates a subscriber delivery failure error
func TransportFailure(reason string) *TreescopeError {
	return New(ErrCodeTransportFailure, fmt.Sprintf("transport failure: %s", reason))
}

// DaemonNotRunning creates an error for a missing daemon socket
func DaemonNotRunning(socket string) *TreescopeError {
	return New(ErrCodeDaemonNotRunning, fmt.Sprintf("daemon is not running (socket %s)", socket)).
		WithDetail("socket", socket)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *TreescopeError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *TreescopeError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}
