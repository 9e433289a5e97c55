package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// WebServerConfig represents the web server configuration
type WebServerConfig struct {
	Server    HTTPServer      `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Templates TemplatesConfig `yaml:"templates"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPServer holds HTTP server configuration
type HTTPServer struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Timezone is used to display backend timestamps
	Timezone string `yaml:"timezone"`
}

// BackendConfig is the club REST backend the dashboard fronts.
type BackendConfig struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

// SessionConfig holds session configuration
type SessionConfig struct {
	Secret string `yaml:"secret"` // 32-byte base64-encoded
	// MaxAge bounds the browser cookie lifetime
	MaxAge time.Duration `yaml:"max_age"`
	// IdleTimeout evicts in-memory session clients unused for this long
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	Secure      bool          `yaml:"secure"`
}

// StorageConfig is where per-session credentials are persisted.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// TemplatesConfig holds template loading configuration
type TemplatesConfig struct {
	// Path overrides the embedded templates when set
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // Log level: debug, info, warn, error
	Format string `yaml:"format"` // Log format: json, text
}

// DefaultConfigPaths defines the default locations to search for web configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/web.yaml",
	"./configs/web.yml",
	"/etc/clubhouse/web.yaml",
	"/etc/clubhouse/web.yml",
}

// Default returns the configuration used when no file is found.
func Default() *WebServerConfig {
	return &WebServerConfig{
		Server: HTTPServer{
			Host: "localhost",
			Port: 8080,
		},
		Backend: BackendConfig{
			URL:            "http://localhost:3000",
			Timeout:        30 * time.Second,
			RefreshTimeout: 15 * time.Second,
		},
		Session: SessionConfig{
			MaxAge:      30 * 24 * time.Hour,
			IdleTimeout: 2 * time.Hour,
		},
		Storage: StorageConfig{
			Dir: "./data/sessions",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the web server configuration from the specified file or default locations
func Load(configPath string) (*WebServerConfig, error) {
	config := Default()

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables take precedence
	if v := os.Getenv("API_BASE_URL"); v != "" {
		config.Backend.URL = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the web configuration
func validate(config *WebServerConfig) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if config.Backend.URL == "" {
		return fmt.Errorf("backend.url cannot be empty")
	}
	u, err := url.Parse(config.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an http(s) URL, got %q", config.Backend.URL)
	}

	if config.Backend.Timeout < 0 || config.Backend.RefreshTimeout < 0 {
		return fmt.Errorf("backend timeouts must not be negative")
	}

	if config.Storage.Dir == "" {
		return fmt.Errorf("storage.dir cannot be empty")
	}

	return nil
}
