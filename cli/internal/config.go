package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/storage"
)

// configEnv overrides the config file location.
const configEnv = "CLUBHOUSE_CONFIG"

// Context represents a named configuration context (like kubectl contexts)
type Context struct {
	Server struct {
		URL string `yaml:"url"`
	} `yaml:"server"`
	Storage struct {
		// Dir holds persisted session credentials; defaults to ~/.config/clubhouse
		Dir string `yaml:"dir,omitempty"`
	} `yaml:"storage"`
	Rendering struct {
		Theme    string `yaml:"theme"`
		Timezone string `yaml:"timezone,omitempty"`
	} `yaml:"rendering"`
	HTTP struct {
		Timeout        string `yaml:"timeout,omitempty"`
		RefreshTimeout string `yaml:"refresh_timeout,omitempty"`
	} `yaml:"http"`
}

// Config represents the CLI configuration with multiple contexts
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`

	path string
}

func newContext(url, theme string) *Context {
	ctx := &Context{}
	ctx.Server.URL = url
	ctx.Rendering.Theme = theme
	return ctx
}

// DefaultConfig returns the default configuration with "dev" and "prod" contexts
func DefaultConfig() *Config {
	return &Config{
		CurrentContext: "dev",
		Contexts: map[string]*Context{
			"dev":  newContext("http://localhost:3000", "auto"),
			"prod": newContext("https://api.clubhouse.example.com", "auto"),
		},
	}
}

// GetCurrentContext returns the current active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// ValidateContextName checks that name can key a context's credential storage.
func ValidateContextName(name string) error {
	if err := storage.ValidateKey(name); err != nil {
		return fmt.Errorf("invalid context name %q: must not be empty, \".\", \"..\" or contain / or \\", name)
	}
	return nil
}

// SetCurrentContext sets the current active context
func (c *Config) SetCurrentContext(name string) error {
	if err := ValidateContextName(name); err != nil {
		return err
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds or updates a context
func (c *Config) AddContext(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".clubhouse"), nil
}

// LoadConfig loads configuration, creating the file with defaults when missing.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return loadConfigFrom(configPath)
}

func loadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := DefaultConfig()
		defaultConfig.path = configPath
		if err := SaveConfig(defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.path = configPath

	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		for name := range config.Contexts {
			config.CurrentContext = name
			break
		}
	}

	return &config, nil
}

// SaveConfig writes the config back to the file it came from.
func SaveConfig(config *Config) error {
	configPath := config.path
	if configPath == "" {
		var err error
		if configPath, err = GetConfigPath(); err != nil {
			return err
		}
		config.path = configPath
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields a client needs.
func (ctx *Context) Validate() error {
	u := strings.TrimSpace(ctx.Server.URL)
	if u == "" {
		return fmt.Errorf("server.url is required")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("server.url must start with http:// or https://, got %q", u)
	}
	if _, err := ctx.timeout(ctx.HTTP.Timeout); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := ctx.timeout(ctx.HTTP.RefreshTimeout); err != nil {
		return fmt.Errorf("http.refresh_timeout: %w", err)
	}
	return nil
}

func (ctx *Context) timeout(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// StorageDir returns where this context persists credentials.
func (ctx *Context) StorageDir() (string, error) {
	if ctx.Storage.Dir != "" {
		return os.ExpandEnv(ctx.Storage.Dir), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "clubhouse"), nil
}

// ClientConfig maps the context onto a backend client configuration.
func (ctx *Context) ClientConfig() (client.Config, error) {
	if err := ctx.Validate(); err != nil {
		return client.Config{}, err
	}
	timeout, _ := ctx.timeout(ctx.HTTP.Timeout)
	refreshTimeout, _ := ctx.timeout(ctx.HTTP.RefreshTimeout)
	return client.Config{
		BaseURL:        strings.TrimRight(strings.TrimSpace(ctx.Server.URL), "/"),
		Timeout:        timeout,
		RefreshTimeout: refreshTimeout,
		UserAgent:      "clubhouse-cli",
	}, nil
}
