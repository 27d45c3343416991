package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the renamespacer.yaml configuration.
type Config struct {
	Project       string       `yaml:"project"`        // Directory of the project being renamespaced
	Clients       []string     `yaml:"clients"`        // Directories of projects that use it
	Exclude       []string     `yaml:"exclude"`        // File names to leave alone, e.g. macros.hpp
	DryRun        bool         `yaml:"dry_run"`        // Leave rewritten files staged next to the originals
	RootNamespace string       `yaml:"root_namespace"` // Namespace enclosing all projects
	StagingSuffix string       `yaml:"staging_suffix"` // Suffix of the staged files
	Verify        bool         `yaml:"verify"`         // Check tree invariants after every pass
	Output        OutputConfig `yaml:"output"`
}

// OutputConfig controls what the run reports besides the rewritten files.
type OutputConfig struct {
	Diff      bool   `yaml:"diff"`       // Include a unified diff per changed file
	IndexPath string `yaml:"index_path"` // Dump the declaration index as JSONL
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DryRun:        true,
		RootNamespace: "principia",
		StagingSuffix: ".new",
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Ensure required defaults
	if cfg.RootNamespace == "" {
		cfg.RootNamespace = "principia"
	}
	if cfg.StagingSuffix == "" {
		cfg.StagingSuffix = ".new"
	}

	return cfg, nil
}

// Validate checks that a run can be started with this configuration.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("no project directory configured")
	}
	return nil
}

// IsExcluded returns true if the file name is excluded from processing.
func (c *Config) IsExcluded(name string) bool {
	return contains(c.Exclude, name)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
