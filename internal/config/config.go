package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the MCP retrieval server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig selects how the MCP server is exposed.
type ServerConfig struct {
	Transport string `yaml:"transport"` // http (default), stdio
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// OpenAIConfig holds the backend API settings. The API key, vector store
// id and assistant id are required; the server refuses to start without
// them.
type OpenAIConfig struct {
	APIKey            string `yaml:"api_key"`
	VectorStoreID     string `yaml:"vector_store_id"`
	AssistantID       string `yaml:"assistant_id"`
	BaseURL           string `yaml:"base_url"`
	RunPollIntervalMS int    `yaml:"run_poll_interval_ms"`
	RunTimeoutSec     int    `yaml:"run_timeout_sec"`
}

// AuthConfig holds inbound API authentication settings. An empty key
// list disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Server.Transport == "" {
		c.Server.Transport = "http"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Assistant runs can poll for a while before the response is written.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.OpenAI.RunPollIntervalMS <= 0 {
		c.OpenAI.RunPollIntervalMS = 500
	}
	if c.OpenAI.RunTimeoutSec <= 0 {
		c.OpenAI.RunTimeoutSec = 60
	}
}

// Validate checks the configuration for correctness. A failure here is
// fatal: the process must not serve traffic with incomplete settings.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "http", "stdio":
		// ok
	default:
		return fmt.Errorf("server.transport must be \"http\" or \"stdio\", got %q", c.Server.Transport)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.OpenAI.VectorStoreID == "" {
		return fmt.Errorf("openai.vector_store_id is required")
	}
	if c.OpenAI.AssistantID == "" {
		return fmt.Errorf("openai.assistant_id is required")
	}
	return nil
}

// Presence reports which required settings are populated, by name only.
// Secret values never leave this package.
func (c *Config) Presence() map[string]bool {
	return map[string]bool{
		"openai_api_key":  c.OpenAI.APIKey != "",
		"vector_store_id": c.OpenAI.VectorStoreID != "",
		"assistant_id":    c.OpenAI.AssistantID != "",
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
