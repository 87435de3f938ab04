package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"easel-ai/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Routing   RoutingConfig    `yaml:"routing"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Breaker   BreakerConfig    `yaml:"breaker"`
	Health    HealthConfig     `yaml:"health"`
	Store     StoreConfig      `yaml:"store"`
	Realtime  RealtimeConfig   `yaml:"realtime"`
	Gateway   GatewayConfig    `yaml:"gateway"`
	Logger    LoggerConfig     `yaml:"logger"`
	Tracer    TracerConfig     `yaml:"tracer"`
}

// ProviderConfig defines one LLM backend.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"` // "anthropic" or "openai"
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig holds HTTP connection pool settings for a provider.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// RoutingConfig steers provider selection.
// Fast is used for fast-path commands; Primary for complex-path commands;
// Fallback is tried once when the selected provider is blocked or fails.
type RoutingConfig struct {
	Fast     string `yaml:"fast"`
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`
}

// RateLimitConfig holds per-provider sliding-window admission settings.
type RateLimitConfig struct {
	MaxRequests   int           `yaml:"max_requests"`
	Window        time.Duration `yaml:"window"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// BreakerConfig holds per-provider circuit breaker settings.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// HealthConfig holds synthetic probe settings.
type HealthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	// Probe latency classification boundaries.
	HealthyBelow  time.Duration `yaml:"healthy_below"`
	DegradedBelow time.Duration `yaml:"degraded_below"`
}

// StoreConfig holds object store settings.
type StoreConfig struct {
	Path string `yaml:"path"` // sqlite database file, ":memory:" for ephemeral
}

// RealtimeConfig holds the Redis broadcast settings.
type RealtimeConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GatewayConfig holds the HTTP front-door settings.
type GatewayConfig struct {
	Addr           string `yaml:"addr"`
	RequestsPerMin int    `yaml:"requests_per_min"`
	BurstSize      int    `yaml:"burst_size"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with production defaults applied.
func Defaults() *Config {
	return &Config{
		Providers: []ProviderConfig{
			{Name: "anthropic", Type: "anthropic", Model: "claude-sonnet-4-20250514"},
			{Name: "openai", Type: "openai", Model: "gpt-4o"},
		},
		Routing: RoutingConfig{
			Fast:     "openai",
			Primary:  "anthropic",
			Fallback: "openai",
		},
		RateLimit: RateLimitConfig{
			MaxRequests:   60,
			Window:        60 * time.Second,
			PruneInterval: 30 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			Timeout:     60 * time.Second,
		},
		Health: HealthConfig{
			Enabled:       true,
			Interval:      5 * time.Minute,
			HealthyBelow:  time.Second,
			DegradedBelow: 3 * time.Second,
		},
		Store: StoreConfig{Path: "easel.db"},
		Realtime: RealtimeConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Gateway: GatewayConfig{
			Addr:           ":8080",
			RequestsPerMin: 120,
			BurstSize:      20,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads the YAML config at path, layered over Defaults. A missing file
// is not an error: defaults plus environment overrides are used. Every
// failure unwraps to domain.ErrConfigLoad.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrConfigLoad, err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfigLoad, path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigLoad, path, err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigLoad, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides maps EASELAI_* env vars to config fields. API keys are
// also picked up from the conventional vendor variables so a bare environment
// works without a config file.
func ApplyEnvOverrides(cfg *Config) {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.APIKey != "" {
			continue
		}
		switch p.Type {
		case "anthropic":
			p.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			p.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("EASELAI_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("EASELAI_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("EASELAI_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("EASELAI_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("EASELAI_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("EASELAI_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("EASELAI_REDIS_ADDR"); v != "" {
		cfg.Realtime.Enabled = true
		cfg.Realtime.Addr = v
	}
}

// Validate checks cross-field invariants before the config is used.
func Validate(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}
	names := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider name is required")
		}
		if names[p.Name] {
			return fmt.Errorf("config: duplicate provider %q", p.Name)
		}
		names[p.Name] = true
		switch p.Type {
		case "anthropic", "openai":
		default:
			return fmt.Errorf("config: provider %q: unsupported type %q", p.Name, p.Type)
		}
	}
	for _, ref := range []struct{ role, name string }{
		{"routing.fast", cfg.Routing.Fast},
		{"routing.primary", cfg.Routing.Primary},
		{"routing.fallback", cfg.Routing.Fallback},
	} {
		if ref.name != "" && !names[ref.name] {
			return fmt.Errorf("config: %s references unknown provider %q", ref.role, ref.name)
		}
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("config: rate_limit.max_requests must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("config: rate_limit.window must be positive")
	}
	return nil
}
