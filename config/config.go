// Package config loads CLI and application configuration.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

// APIConfig configures the request engine.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	CacheEnabled   bool          `mapstructure:"cache_enabled"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// SessionConfig configures session persistence and background refresh.
type SessionConfig struct {
	StorageDir                 string        `mapstructure:"storage_dir"`
	BalanceRefreshInterval     time.Duration `mapstructure:"balance_refresh_interval"`
	TransactionRefreshInterval time.Duration `mapstructure:"transaction_refresh_interval"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// SentryConfig configures error tracking.
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PAYLINK.
// Nested keys use underscore: PAYLINK_API_BASE_URL, PAYLINK_LOG_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("api.base_url", "https://api.paylink.dev")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.retry_attempts", 3)
	v.SetDefault("api.retry_base_delay", "1s")
	v.SetDefault("api.cache_enabled", true)
	v.SetDefault("api.cache_ttl", "30s")
	v.SetDefault("session.storage_dir", "")
	v.SetDefault("session.balance_refresh_interval", "2m")
	v.SetDefault("session.transaction_refresh_interval", "3m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("sentry.dsn", "")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("paylink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/paylink")
	}

	// Environment variables: PAYLINK_API_BASE_URL -> api.base_url
	v.SetEnvPrefix("PAYLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}
