// Package config loads and validates treescope configuration files.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/treescope/errors"
	"github.com/grovetools/treescope/pkg/paths"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are the recognized config file names, in precedence order.
var configNames = []string{
	"treescope.yml",
	"treescope.yaml",
	".treescope.yml",
	".treescope.yaml",
	"treescope.toml",
}

// Load reads and parses a single treescope configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return parse(data, path)
}

// LoadDefault finds and loads the configuration starting from the
// current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration with layered merging:
// 1. Global config (<config dir>/treescope.yml) - base layer
// 2. Project config (treescope.yml found walking up from startDir)
func LoadFrom(startDir string) (*Config, error) {
	projectPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	var final *Config

	// Global layer is optional.
	globalPath := filepath.Join(paths.ConfigDir(), "treescope.yml")
	if _, statErr := os.Stat(globalPath); statErr == nil {
		if globalCfg, loadErr := Load(globalPath); loadErr == nil {
			final = globalCfg
		}
	}

	projectCfg, err := Load(projectPath)
	if err != nil {
		return nil, err
	}

	if final == nil {
		final = projectCfg
	} else {
		final = mergeConfigs(final, projectCfg)
	}

	// An unset root defaults to the directory holding the project config.
	if final.Root == "" {
		final.Root = filepath.Dir(projectPath)
	}

	final.SetDefaults()
	return final, nil
}

// parse decodes, validates, and defaults a config document. The path
// selects the decoder (TOML vs YAML) and annotates errors.
func parse(data []byte, path string) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration").
				WithDetail("path", path)
		}
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed").
			WithDetail("path", path)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// FindConfigFile searches for a treescope configuration file from
// startDir up to the filesystem root, then in the global config dir.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	globalPath := filepath.Join(paths.ConfigDir(), "treescope.yml")
	if info, err := os.Stat(globalPath); err == nil && !info.IsDir() {
		return globalPath, nil
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
