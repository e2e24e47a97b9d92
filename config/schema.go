package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the base JSON Schema for the treescope
// configuration. It reflects the Config struct but excludes the
// Extensions field, which captures arbitrary extra keys.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extensions live under their own top-level keys.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	type BaseConfig struct {
		Root      string          `yaml:"root,omitempty" jsonschema:"description=Directory tree to watch"`
		Listen    string          `yaml:"listen,omitempty" jsonschema:"description=Daemon listen spec (unix:<path> or tcp:<addr>)"`
		Watch     WatchConfig     `yaml:"watch,omitempty" jsonschema:"description=Filesystem watch settings"`
		Snapshot  SnapshotConfig  `yaml:"snapshot,omitempty" jsonschema:"description=Snapshot scan settings"`
		Typeahead TypeaheadConfig `yaml:"typeahead,omitempty" jsonschema:"description=Type-ahead navigation settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Treescope Configuration"
	schema.Description = "Schema for treescope.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Required = nil

	return json.MarshalIndent(schema, "", "  ")
}
