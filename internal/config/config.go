// Package config loads smartcommit configuration from
// .smartcommit/config.yaml under the workspace, with environment variable
// overrides applied after file parsing.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	scerrors "smartcommit/internal/errors"
)

// ConfigDir is the workspace-relative directory holding config, plans and
// history.
const ConfigDir = ".smartcommit"

// Config holds all smartcommit configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Secrets SecretsConfig `yaml:"secrets"`
	Apply   ApplyConfig   `yaml:"apply"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig configures the LLM completion provider. An empty provider
// means no model capability is configured and generation goes straight to
// the heuristic planner.
type ModelConfig struct {
	Provider    string `yaml:"provider"` // anthropic, gemini
	APIKey      string `yaml:"api_key"`
	ModelName   string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"` // per individual model call
}

// SecretsConfig configures the secrets detector.
type SecretsConfig struct {
	// PatternsFile points at an optional YAML file of extra content
	// patterns, workspace-relative. Defaults to .smartcommit/secrets.yaml.
	PatternsFile string `yaml:"patterns_file"`
	// AutoConfirmBypass skips the interactive confirmation when a bypass is
	// requested. Overrides are still logged.
	AutoConfirmBypass bool `yaml:"auto_confirm_bypass"`
}

// ApplyConfig configures the applier and push.
type ApplyConfig struct {
	// ProtectedBranches extends the built-in protected branch list.
	ProtectedBranches []string `yaml:"protected_branches"`
	Remote            string   `yaml:"remote"`
}

// LoggingConfig configures log verbosity.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Timeout:     "120s",
			MaxAttempts: 2,
		},
		Secrets: SecretsConfig{
			PatternsFile: filepath.Join(ConfigDir, "secrets.yaml"),
		},
		Apply: ApplyConfig{
			Remote: "origin",
		},
	}
}

// Load reads the config file under workspace, fills defaults, and applies
// environment overrides. A missing file is not an error.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, ConfigDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, scerrors.Wrapf(err, "parse %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, scerrors.Wrapf(err, "read %s", path)
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

// applyEnvOverrides lets API keys and provider selection come from the
// environment. Provider-specific keys set the provider only when it is not
// already configured; GEMINI takes precedence over ANTHROPIC when both are
// present and no provider was chosen.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Model.APIKey = v
		if c.Model.Provider == "" {
			c.Model.Provider = "anthropic"
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Model.APIKey = v
		if c.Model.Provider == "" || c.Model.Provider == "anthropic" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			c.Model.Provider = "gemini"
		}
	}
	if v := os.Getenv("SMARTCOMMIT_MODEL"); v != "" {
		c.Model.ModelName = v
	}
	if v := os.Getenv("SMARTCOMMIT_PROVIDER"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("SMARTCOMMIT_REMOTE"); v != "" {
		c.Apply.Remote = v
	}
	if os.Getenv("SMARTCOMMIT_VERBOSE") == "1" {
		c.Logging.Verbose = true
	}
}

func (c *Config) fillDefaults() {
	if c.Model.Timeout == "" {
		c.Model.Timeout = "120s"
	}
	if c.Model.MaxAttempts <= 0 {
		c.Model.MaxAttempts = 2
	}
	if c.Apply.Remote == "" {
		c.Apply.Remote = "origin"
	}
	if c.Secrets.PatternsFile == "" {
		c.Secrets.PatternsFile = filepath.Join(ConfigDir, "secrets.yaml")
	}
}

// ModelTimeout parses the configured timeout, defaulting to two minutes on
// a bad value.
func (c *Config) ModelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// HasModel reports whether a model capability is configured.
func (c *Config) HasModel() bool {
	return c.Model.Provider != "" && c.Model.APIKey != ""
}
