// Package config loads the daemon's YAML configuration tree. The struct is
// split one file per concern (server, database, LLM, tools, logging),
// matching internal/config's own layout in the gateway this daemon was
// adapted from: a single Config aggregate assembled from nested structs,
// loaded with gopkg.in/yaml.v3 and defaulted/validated after parsing rather
// than inline in struct tags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration, read once at startup and
// passed to the components that use it; sharedstate.State does not hold it.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Tools    ToolsConfig    `yaml:"tools"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads and parses a YAML config file, applies defaults for anything
// left zero-valued, and validates cross-field invariants.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Server.applyDefaults()
	c.Database.applyDefaults()
	c.Logging.applyDefaults()
}

// ConfigValidationError aggregates every issue found validating a Config in
// one pass, the same reporting shape as caps.ValidationError.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	msg := "invalid config:"
	for _, issue := range e.Issues {
		msg += "\n- " + issue
	}
	return msg
}

// Validate checks cross-field invariants the yaml tags can't express.
func (c *Config) Validate() error {
	var issues []string
	issues = append(issues, c.Server.validate()...)
	issues = append(issues, c.Database.validate()...)
	issues = append(issues, c.LLM.validate()...)

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}
