package config

// mergeConfigs overlays the overlay config onto the base. Scalar fields
// set in the overlay win; unset fields keep the base value. Extensions
// merge per top-level key.
func mergeConfigs(base, overlay *Config) *Config {
	merged := *base

	if overlay.Root != "" {
		merged.Root = overlay.Root
	}
	if overlay.Listen != "" {
		merged.Listen = overlay.Listen
	}
	if overlay.Watch.DebounceMs > 0 {
		merged.Watch.DebounceMs = overlay.Watch.DebounceMs
	}
	if overlay.Watch.RetryMs > 0 {
		merged.Watch.RetryMs = overlay.Watch.RetryMs
	}
	if overlay.Snapshot.IncludeHidden {
		merged.Snapshot.IncludeHidden = true
	}
	if len(overlay.Snapshot.Ignore) > 0 {
		merged.Snapshot.Ignore = overlay.Snapshot.Ignore
	}
	if overlay.Typeahead.TimeoutMs > 0 {
		merged.Typeahead.TimeoutMs = overlay.Typeahead.TimeoutMs
	}

	if len(overlay.Extensions) > 0 {
		ext := make(map[string]interface{}, len(base.Extensions)+len(overlay.Extensions))
		for k, v := range base.Extensions {
			ext[k] = v
		}
		for k, v := range overlay.Extensions {
			ext[k] = v
		}
		merged.Extensions = ext
	}

	return &merged
}
