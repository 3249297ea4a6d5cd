package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
store:
  type: memory
monitoring:
  log_level: debug
  log_format: console
features:
  add_event:
    enabled: true
    priority: "20"
  list_events:
    enabled: false
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, "debug", cfg.Monitoring.LogLevel)

	assert.True(t, cfg.Features.Enabled(FeatureAddEvent))
	assert.False(t, cfg.Features.Enabled(FeatureListEvents))
	assert.True(t, cfg.Features.Enabled(FeatureLive), "missing features default to enabled")
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("ANTIARCHY_TEST_PORT", "9090")

	data := `
server:
  port: ${ANTIARCHY_TEST_PORT}
  read_timeout: 5s
  write_timeout: 5s
store:
  type: ${ANTIARCHY_TEST_STORE:-sqlite}
  path: ${ANTIARCHY_TEST_DB:-/tmp/antiarchy.db}
`
	cfg, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreSQLite, cfg.Store.Type)
	assert.Equal(t, "/tmp/antiarchy.db", cfg.Store.Path)
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	t.Setenv("ANTIARCHY_STORE_PATH", "/var/lib/antiarchy.db")
	t.Setenv("ANTIARCHY_LOG_LEVEL", "warn")

	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/antiarchy.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Monitoring.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
			Store:  StoreConfig{Type: StoreMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port is required"},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server.port"},
		{name: "missing read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: "server.read_timeout"},
		{name: "missing write timeout", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }, wantErr: "server.write_timeout"},
		{name: "missing store type", mutate: func(c *Config) { c.Store.Type = "" }, wantErr: "store.type is required"},
		{name: "unknown store type", mutate: func(c *Config) { c.Store.Type = "couch" }, wantErr: "invalid store.type"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Type = StoreSQLite }, wantErr: "store.path"},
		{name: "bad log format", mutate: func(c *Config) { c.Monitoring.LogFormat = "xml" }, wantErr: "log_format"},
		{
			name: "bad priority",
			mutate: func(c *Config) {
				c.Features = FeaturesConfig{FeatureHome: {Enabled: true, Priority: "soon"}}
			},
			wantErr: "features.home.priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
