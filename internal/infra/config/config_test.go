package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel-ai/internal/domain"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "anthropic", cfg.Providers[0].Name)
	assert.Equal(t, "openai", cfg.Providers[1].Name)

	assert.Equal(t, "openai", cfg.Routing.Fast)
	assert.Equal(t, "anthropic", cfg.Routing.Primary)
	assert.Equal(t, "openai", cfg.Routing.Fallback)

	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, time.Minute, cfg.Breaker.Timeout)

	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.Equal(t, "easel.db", cfg.Store.Path)
	assert.False(t, cfg.Realtime.Enabled)
	assert.False(t, cfg.Tracer.Enabled)

	require.NoError(t, Validate(cfg))
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routing:
  fast: anthropic
rate_limit:
  max_requests: 10
gateway:
  addr: ":9999"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden fields.
	assert.Equal(t, "anthropic", cfg.Routing.Fast)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, ":9999", cfg.Gateway.Addr)

	// Untouched fields keep their defaults.
	assert.Equal(t, "anthropic", cfg.Routing.Primary)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "easel.db", cfg.Store.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Routing, cfg.Routing)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routing: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigLoad)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadInvalidConfigIsConfigLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rate_limit:
  max_requests: -1
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigLoad)
	assert.Equal(t, domain.CodeConfigLoad, domain.ErrorCodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no providers",
			mutate:  func(c *Config) { c.Providers = nil },
			wantErr: "at least one provider",
		},
		{
			name: "unnamed provider",
			mutate: func(c *Config) {
				c.Providers[0].Name = ""
			},
			wantErr: "name is required",
		},
		{
			name: "duplicate provider",
			mutate: func(c *Config) {
				c.Providers[1].Name = c.Providers[0].Name
			},
			wantErr: "duplicate provider",
		},
		{
			name: "unsupported type",
			mutate: func(c *Config) {
				c.Providers[0].Type = "bedrock"
			},
			wantErr: "unsupported type",
		},
		{
			name: "routing references unknown provider",
			mutate: func(c *Config) {
				c.Routing.Fallback = "mistral"
			},
			wantErr: "unknown provider",
		},
		{
			name: "nonpositive max requests",
			mutate: func(c *Config) {
				c.RateLimit.MaxRequests = 0
			},
			wantErr: "max_requests must be positive",
		},
		{
			name: "nonpositive window",
			mutate: func(c *Config) {
				c.RateLimit.Window = 0
			},
			wantErr: "window must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnvOverridesAPIKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-oai-test")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "sk-ant-test", cfg.Providers[0].APIKey)
	assert.Equal(t, "sk-oai-test", cfg.Providers[1].APIKey)
}

func TestApplyEnvOverridesKeepExplicitKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")

	cfg := Defaults()
	cfg.Providers[0].APIKey = "sk-from-file"
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "sk-from-file", cfg.Providers[0].APIKey)
}

func TestApplyEnvOverridesSettings(t *testing.T) {
	t.Setenv("EASELAI_LOGGER_LEVEL", "debug")
	t.Setenv("EASELAI_GATEWAY_ADDR", ":7070")
	t.Setenv("EASELAI_REDIS_ADDR", "redis:6379")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, ":7070", cfg.Gateway.Addr)
	assert.True(t, cfg.Realtime.Enabled)
	assert.Equal(t, "redis:6379", cfg.Realtime.Addr)
}
