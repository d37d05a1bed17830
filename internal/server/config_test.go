package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:38254", config.Address())
	assert.Equal(t, 60*time.Second, config.IdleThreshold)
	assert.Equal(t, time.Second, config.SweepPeriod)
	assert.Equal(t, 64*1024, config.ReadChunk)
	assert.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
host: 0.0.0.0
port: 9000
idle_threshold: 90s
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", config.Address())
	assert.Equal(t, 90*time.Second, config.IdleThreshold)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	// Unset fields keep their defaults.
	assert.Equal(t, time.Second, config.SweepPeriod)
	assert.Equal(t, 64*1024, config.ReadChunk)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port"},
		{"zero idle threshold", func(c *Config) { c.IdleThreshold = 0 }, "idle threshold"},
		{"negative sweep period", func(c *Config) { c.SweepPeriod = -time.Second }, "sweep period"},
		{"zero read chunk", func(c *Config) { c.ReadChunk = 0 }, "read chunk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
