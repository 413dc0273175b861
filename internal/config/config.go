// Package config loads and validates auroracast configuration from YAML
// with environment overrides. A missing config file is not an error; the
// defaults are a fully working demo-mode setup.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all auroracast configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Oracle (model provider) configuration
	Oracle OracleConfig `yaml:"oracle"`

	// Default observing location
	Location LocationConfig `yaml:"location"`

	// Report archive
	Store StoreConfig `yaml:"store"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// OracleConfig configures the generative model provider. An empty APIKey
// selects the demo capability for the life of the process.
type OracleConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`       // forecast + grounding calls
	PhotoModel string `yaml:"photo_model"` // image analysis calls
	ChatModel  string `yaml:"chat_model"`  // conversational sessions
	Timeout    string `yaml:"timeout"`     // per-request budget, e.g. "90s"
	DemoDelay  string `yaml:"demo_delay"`  // simulated latency in demo mode
	ForceDemo  bool   `yaml:"force_demo"`  // demo even when a key is present
}

// LocationConfig is the fallback observing site used when the caller
// provides no coordinates.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// StoreConfig configures the sqlite report archive.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	Disabled     bool   `yaml:"disabled"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Debug bool   `yaml:"debug"` // enable file logging
	Dir   string `yaml:"dir"`
}

// UserDir returns the per-user auroracast directory (~/.auroracast).
func UserDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".auroracast"
	}
	return filepath.Join(home, ".auroracast")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(UserDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	userDir := UserDir()
	return &Config{
		Name:    "auroracast",
		Version: "1.0.0",

		Oracle: OracleConfig{
			Model:      "gemini-2.5-flash",
			PhotoModel: "gemini-2.5-flash",
			ChatModel:  "gemini-2.5-flash",
			Timeout:    "90s",
			DemoDelay:  "1200ms",
		},

		// Reykjavik, a reliable default for aurora hunting.
		Location: LocationConfig{
			Latitude:  64.1265,
			Longitude: -21.8174,
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(userDir, "reports.db"),
		},

		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},

		Logging: LoggingConfig{
			Level: "info",
			Debug: false,
			Dir:   filepath.Join(userDir, "logs"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if model := os.Getenv("AURORACAST_MODEL"); model != "" {
		c.Oracle.Model = model
	}
	if v := os.Getenv("AURORACAST_DEMO"); v != "" {
		c.Oracle.ForceDemo = v == "1" || v == "true"
	}
	if path := os.Getenv("AURORACAST_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if port := os.Getenv("AURORACAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("AURORACAST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("AURORACAST_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}
	if v := os.Getenv("AURORACAST_DEBUG"); v != "" {
		c.Logging.Debug = v == "1" || v == "true"
	}
}

// Demo reports whether the process should run on the fallback capability.
// Credential absence is the gate; ForceDemo overrides a present key.
func (c *Config) Demo() bool {
	return c.Oracle.ForceDemo || c.Oracle.APIKey == ""
}

// GetRequestTimeout returns the per-request model call budget.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// GetDemoDelay returns the simulated latency for demo-mode calls.
func (c *Config) GetDemoDelay() time.Duration {
	d, err := time.ParseDuration(c.Oracle.DemoDelay)
	if err != nil {
		return 1200 * time.Millisecond
	}
	return d
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Oracle.Model == "" {
		return fmt.Errorf("oracle.model must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for _, v := range []float64{c.Location.Latitude, c.Location.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("location coordinates must be finite")
		}
	}
	if c.Oracle.DemoDelay != "" {
		if d, err := time.ParseDuration(c.Oracle.DemoDelay); err != nil {
			return fmt.Errorf("oracle.demo_delay invalid: %w", err)
		} else if d <= 0 {
			return fmt.Errorf("oracle.demo_delay must be positive")
		}
	}
	if c.Oracle.Timeout != "" {
		if _, err := time.ParseDuration(c.Oracle.Timeout); err != nil {
			return fmt.Errorf("oracle.timeout invalid: %w", err)
		}
	}
	return nil
}
