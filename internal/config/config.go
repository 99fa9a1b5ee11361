// Package config provides the typed application configuration.
//
// Values are layered by viper in internal/cmd: defaults, then the config file
// from the XDG config dir, then {PREFIX}_* environment variables and flags.
// Load decodes the merged view into Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// APIKeyEnvFallback is consulted when generator.api_key is unset.
const APIKeyEnvFallback = "NEBIUS_API_KEY"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Generator GeneratorConfig `mapstructure:"generator"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Port is the dedicated exporter port; /metrics on the main port proxies to it.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AdmissionConfig controls per-client throttling of image generation.
// Limit and Window are fixed for the lifetime of the server.
type AdmissionConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`

	// ClientHeader names the request header the client identifier is read from.
	ClientHeader string `mapstructure:"client_header"`
	// FallbackIdentifier is used when the header is absent.
	FallbackIdentifier string `mapstructure:"fallback_identifier"`

	// EvictInterval enables periodic removal of idle identifiers when > 0.
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

// GeneratorConfig configures the downstream image provider.
type GeneratorConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	InferenceSteps    int           `mapstructure:"inference_steps"`
	ResponseExtension string        `mapstructure:"response_extension"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("admission.limit", 3)
	v.SetDefault("admission.window", "24h")
	v.SetDefault("admission.client_header", "X-Forwarded-For")
	v.SetDefault("admission.fallback_identifier", "unknown")
	v.SetDefault("admission.evict_interval", "0s")

	v.SetDefault("generator.base_url", "https://api.studio.nebius.com/v1/")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.model", "black-forest-labs/flux-schnell")
	v.SetDefault("generator.timeout", "60s")
	v.SetDefault("generator.inference_steps", 4)
	v.SetDefault("generator.response_extension", "webp")
}

// Load decodes and validates the merged settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Generator.APIKey) == "" {
		cfg.Generator.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnvFallback))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate checks values that would make the server misbehave.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Admission.Limit < 1 {
		problems = append(problems, "admission.limit must be at least 1")
	}
	if c.Admission.Window <= 0 {
		problems = append(problems, "admission.window must be positive")
	}
	if c.Admission.EvictInterval < 0 {
		problems = append(problems, "admission.evict_interval must not be negative")
	}
	if strings.TrimSpace(c.Admission.ClientHeader) == "" {
		problems = append(problems, "admission.client_header is required")
	}
	if strings.TrimSpace(c.Generator.BaseURL) == "" {
		problems = append(problems, "generator.base_url is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the most recently loaded configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(configName string) string {
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}
