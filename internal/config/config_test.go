package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "auroracast", cfg.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.Oracle.Model)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 64.1265, cfg.Location.Latitude, 0.0001)
	assert.InDelta(t, -21.8174, cfg.Location.Longitude, 0.0001)
	assert.NoError(t, cfg.Validate())

	// Defaults must be a working demo setup.
	assert.True(t, cfg.Demo())
	assert.Greater(t, cfg.GetDemoDelay(), time.Duration(0))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Oracle.Model, cfg.Oracle.Model)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AURORACAST_PORT", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
oracle:
  api_key: file-key
  model: gemini-2.5-pro
  demo_delay: 50ms
location:
  latitude: 69.65
  longitude: 18.96
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Oracle.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Oracle.Model)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 69.65, cfg.Location.Latitude, 0.001)
	assert.Equal(t, 50*time.Millisecond, cfg.GetDemoDelay())

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().Oracle.Timeout, cfg.Oracle.Timeout)
	assert.False(t, cfg.Demo())
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oracle: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Oracle.Model = "gemini-2.5-pro"
	cfg.Server.Port = 7070
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", loaded.Oracle.Model)
	assert.Equal(t, 7070, loaded.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Oracle.Model = "" }},
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad demo delay", func(c *Config) { c.Oracle.DemoDelay = "soon" }},
		{"zero demo delay", func(c *Config) { c.Oracle.DemoDelay = "0s" }},
		{"bad timeout", func(c *Config) { c.Oracle.Timeout = "whenever" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationGettersFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracle.Timeout = "garbage"
	cfg.Oracle.DemoDelay = "garbage"

	assert.Equal(t, 90*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, 1200*time.Millisecond, cfg.GetDemoDelay())
}

func TestDemoGate(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Demo(), "no key means demo")

	cfg.Oracle.APIKey = "k"
	assert.False(t, cfg.Demo(), "key present means live")

	cfg.Oracle.ForceDemo = true
	assert.True(t, cfg.Demo(), "force_demo wins over a present key")
}
