package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the parsed treescope.yml (or treescope.toml).
type Config struct {
	// Root is the directory tree to watch. Defaults to the directory
	// containing the config file, or the current directory.
	Root string `yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty" jsonschema:"description=Directory tree to watch"`

	// Listen is the daemon listen spec: "unix:<path>" or "tcp:<addr>".
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=Daemon listen spec (unix:<path> or tcp:<addr>)"`

	Watch     WatchConfig     `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty" jsonschema:"description=Filesystem watch settings"`
	Snapshot  SnapshotConfig  `yaml:"snapshot,omitempty" toml:"snapshot,omitempty" json:"snapshot,omitempty" jsonschema:"description=Snapshot scan settings"`
	Typeahead TypeaheadConfig `yaml:"typeahead,omitempty" toml:"typeahead,omitempty" json:"typeahead,omitempty" jsonschema:"description=Type-ahead navigation settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// WatchConfig tunes the watch-debounce pipeline.
type WatchConfig struct {
	// DebounceMs is the quiet period after the last filesystem event
	// before the tree is re-scanned.
	DebounceMs int `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" json:"debounce_ms,omitempty" jsonschema:"description=Debounce quiet period in milliseconds"`

	// RetryMs is the pause before re-arming a failed watch.
	RetryMs int `yaml:"retry_ms,omitempty" toml:"retry_ms,omitempty" json:"retry_ms,omitempty" jsonschema:"description=Watch retry backoff in milliseconds"`
}

// SnapshotConfig tunes the directory scan.
type SnapshotConfig struct {
	// IncludeHidden includes dotfiles in snapshots.
	IncludeHidden bool `yaml:"include_hidden,omitempty" toml:"include_hidden,omitempty" json:"include_hidden,omitempty" jsonschema:"description=Include dotfiles in snapshots"`

	// Ignore lists glob patterns excluded from snapshots.
	Ignore []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=Glob patterns excluded from snapshots"`
}

// TypeaheadConfig tunes the TUI type-ahead search.
type TypeaheadConfig struct {
	// TimeoutMs is the idle time after which the type-ahead query resets.
	TimeoutMs int `yaml:"timeout_ms,omitempty" toml:"timeout_ms,omitempty" json:"timeout_ms,omitempty" jsonschema:"description=Type-ahead reset timeout in milliseconds"`
}

// Default tuning values.
const (
	DefaultDebounceMs       = 1000
	DefaultRetryMs          = 1000
	DefaultTypeaheadMs      = 400
	DefaultListenSocketName = "treescoped.sock"
)

// SetDefaults fills in zero-valued tuning fields.
func (c *Config) SetDefaults() {
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = DefaultDebounceMs
	}
	if c.Watch.RetryMs <= 0 {
		c.Watch.RetryMs = DefaultRetryMs
	}
	if c.Typeahead.TimeoutMs <= 0 {
		c.Typeahead.TimeoutMs = DefaultTypeaheadMs
	}
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// RetryBackoff returns the watch retry backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Watch.RetryMs) * time.Millisecond
}

// TypeaheadTimeout returns the type-ahead reset timeout as a duration.
func (c *Config) TypeaheadTimeout() time.Duration {
	return time.Duration(c.Typeahead.TimeoutMs) * time.Millisecond
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded treescope.yml into the provided target struct. The target must be
// a pointer. This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
