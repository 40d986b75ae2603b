package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/takutakahashi/orderkuota-proxy/pkg/logger"
	"github.com/takutakahashi/orderkuota-proxy/pkg/orderkuota"
)

// EnvPrefix is the prefix for environment overrides, e.g. ORDERKUOTA_UPSTREAM_TIMEOUT
const EnvPrefix = "ORDERKUOTA"

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// UpstreamConfig represents provider client configuration.
// The provider base URL is fixed and not configurable.
type UpstreamConfig struct {
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Config represents the proxy configuration
type Config struct {
	// Port is the HTTP listen port
	Port string `json:"port" mapstructure:"port"`
	// Verbose logs every request at info level instead of debug
	Verbose bool `json:"verbose" mapstructure:"verbose"`
	// AllowedOrigins lists CORS origins; empty allows localhost only
	AllowedOrigins []string            `json:"allowed_origins" mapstructure:"allowed_origins"`
	Log            LogConfig           `json:"log" mapstructure:"log"`
	Upstream       UpstreamConfig      `json:"upstream" mapstructure:"upstream"`
	Identity       orderkuota.Identity `json:"identity" mapstructure:"identity"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           "8080",
		AllowedOrigins: []string{},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatJSON,
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Identity: orderkuota.DefaultIdentity(),
	}
}

// LoadConfig loads configuration from a file (json, yaml or toml, by
// extension) layered over defaults and environment variables. An empty
// filename loads from defaults and the environment only.
func LoadConfig(filename string) (*Config, error) {
	return LoadConfigWithViper(viper.New(), filename)
}

// LoadConfigWithViper is LoadConfig on a caller-supplied viper instance,
// so flags bound on it take part in resolution.
func LoadConfigWithViper(v *viper.Viper, filename string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("invalid identity: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("identity.app_reg_id", d.Identity.AppRegID)
	v.SetDefault("identity.app_version_code", d.Identity.AppVersionCode)
	v.SetDefault("identity.app_version_name", d.Identity.AppVersionName)
}
