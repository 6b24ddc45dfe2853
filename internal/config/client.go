package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// EnvAPI overrides the API base URL of the current context
const EnvAPI = "AUTHFLOW_API"

// Context is a named API target (like kubectl contexts)
type Context struct {
	API string `yaml:"api"`
}

// ClientConfig is the client's configuration file with multiple contexts
type ClientConfig struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// DefaultClientConfig returns a config with a single "local" context
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		CurrentContext: "local",
		Contexts: map[string]*Context{
			"local": {API: "http://localhost:8080"},
		},
	}
}

// GetCurrentContext returns the current active context
func (c *ClientConfig) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// SetCurrentContext sets the current active context
func (c *ClientConfig) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// APIURL resolves the base URL: env override first, then the current context
func (c *ClientConfig) APIURL() (string, error) {
	if v := os.Getenv(EnvAPI); v != "" {
		return v, nil
	}
	ctx, err := c.GetCurrentContext()
	if err != nil {
		return "", err
	}
	if ctx.API == "" {
		return "", fmt.Errorf("context %q has no api url", c.CurrentContext)
	}
	return ctx.API, nil
}

// DefaultClientConfigPath returns ~/.config/authflow/client.yaml
func DefaultClientConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "authflow", "client.yaml"), nil
}

// LoadClientConfig reads the config at path.
// A missing file yields the defaults without creating anything.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultClientConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ClientConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure we have a valid current context
	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		names := make([]string, 0, len(config.Contexts))
		for name := range config.Contexts {
			names = append(names, name)
		}
		sort.Strings(names)
		config.CurrentContext = names[0]
	}

	return &config, nil
}

// SaveClientConfig writes the config to path
func SaveClientConfig(path string, config *ClientConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
