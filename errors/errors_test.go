package errors

import (
	"fmt"
	"testing"
)

func TestTreescopeError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeIOFailure, "root unreadable")
	if err.Code != ErrCodeIOFailure {
		t.Errorf("expected code %s, got %s", ErrCodeIOFailure, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeWatchFailure, "watch failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeWatchFailure) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeIOFailure) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("path", "/tmp/root").WithDetail("entries", 12)
	if detailed.Details["path"] != "/tmp/root" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := IOFailure("/tmp/gone", fmt.Errorf("no such file"))
	if err.Code != ErrCodeIOFailure {
		t.Errorf("expected code %s, got %s", ErrCodeIOFailure, err.Code)
	}
	if err.Details["path"] != "/tmp/gone" {
		t.Error("IOFailure should include path detail")
	}

	werr := WatchFailure("/tmp/root", fmt.Errorf("inotify limit"))
	if werr.Code != ErrCodeWatchFailure {
		t.Errorf("expected code %s, got %s", ErrCodeWatchFailure, werr.Code)
	}
	if werr.Details["root"] != "/tmp/root" {
		t.Error("WatchFailure should include root detail")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
	err := fmt.Errorf("outer: %w", DaemonNotRunning("/run/treescope.sock"))
	if GetCode(err) != ErrCodeDaemonNotRunning {
		t.Errorf("GetCode should unwrap to %s, got %s", ErrCodeDaemonNotRunning, GetCode(err))
	}
}
