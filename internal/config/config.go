// Package config loads themetree configuration: the default provider
// and model plus per-provider connection settings. Files may be JSON
// (the llms.json shape) or YAML, selected by extension. Environment
// variables override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = ".local/llms.json"

// Config holds all themetree configuration.
type Config struct {
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	DefaultModel    string `json:"default_model" yaml:"default_model"`

	// Providers maps provider name (openrouter, iflow, gemini) to its
	// connection settings.
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`

	// Debug enables categorized file logging.
	Debug bool `json:"debug" yaml:"debug"`

	// LogDir is where category log files go when Debug is set.
	LogDir string `json:"log_dir" yaml:"log_dir"`
}

// ProviderConfig holds connection settings for one provider.
type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	// Timeout is in seconds; zero means the client default.
	Timeout int `json:"timeout" yaml:"timeout"`
}

// TimeoutDuration returns the configured timeout as a duration.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProvider: "openrouter",
		DefaultModel:    "gpt-4o-mini",
		Providers:       map[string]ProviderConfig{},
		LogDir:          ".themetree",
	}
}

// Load reads configuration from path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env overrides.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := unmarshalConfig(path, data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func unmarshalConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	return nil
}

// Environment overrides. API keys are the usual deployment path; the
// model override is how batch jobs pin a model without editing files.
func (c *Config) applyEnvOverrides() {
	for provider, envVar := range map[string]string{
		"openrouter": "OPENROUTER_API_KEY",
		"iflow":      "IFLOW_API_KEY",
		"gemini":     "GEMINI_API_KEY",
	} {
		if key := os.Getenv(envVar); key != "" {
			p := c.Providers[provider]
			p.APIKey = key
			c.Providers[provider] = p
		}
	}

	if v := os.Getenv("THEMETREE_DEFAULT_MODEL"); v != "" {
		provider, model := SplitModelSpec(v)
		if provider != "" {
			c.DefaultProvider = provider
		}
		c.DefaultModel = model
	}
	if os.Getenv("THEMETREE_DEBUG") == "1" {
		c.Debug = true
	}
}

// SplitModelSpec splits a "provider::model" string. When there is no
// separator the provider part is empty and the whole string is the
// model name.
func SplitModelSpec(spec string) (provider, model string) {
	if i := strings.Index(spec, "::"); i >= 0 {
		return spec[:i], spec[i+2:]
	}
	return "", spec
}

// Resolve returns the provider and model to use for the given spec,
// falling back to the configured defaults.
func (c *Config) Resolve(spec string) (provider, model string) {
	provider, model = SplitModelSpec(spec)
	if provider == "" {
		provider = c.DefaultProvider
	}
	if model == "" {
		model = c.DefaultModel
	}
	return provider, model
}

// Provider returns the connection settings for a provider name.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}
