package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LAUNCHCALC_HTTP_ADDR.
const EnvPrefix = "LAUNCHCALC"

// AuthConfig holds bearer-token settings for mutating endpoints.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// TLEConfig controls where satellite element sets come from.
type TLEConfig struct {
	File       string   `mapstructure:"file"`
	SourceURL  string   `mapstructure:"source_url"`
	ExtraURLs  []string `mapstructure:"extra_urls"`
	Fetch      bool     `mapstructure:"fetch"`
	Watch      bool     `mapstructure:"watch"`
	MaxBytes   int64    `mapstructure:"max_bytes"`
	CacheDir   string   `mapstructure:"cache_dir"`
	CacheFiles int      `mapstructure:"cache_files"`
}

// VisibilityConfig tunes the visible-satellite search.
type VisibilityConfig struct {
	MinElevation float64 `mapstructure:"min_elevation"`
	Workers      int     `mapstructure:"workers"`
}

// Config holds all runtime configuration for the calculator.
// Values are populated from launchcalc.toml, LAUNCHCALC_* env vars, and CLI flags.
type Config struct {
	HTTPAddr   string           `mapstructure:"http_addr"`
	LogLevel   string           `mapstructure:"log_level"`
	Mu         float64          `mapstructure:"mu"`
	TrustProxy bool             `mapstructure:"trust_proxy"`
	Auth       AuthConfig       `mapstructure:"auth"`
	TLE        TLEConfig        `mapstructure:"tle"`
	Visibility VisibilityConfig `mapstructure:"visibility"`
}

// SetDefaults registers built-in defaults on the global viper instance.
func SetDefaults() {
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("mu", 398600.4418)
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token", "")
	viper.SetDefault("tle.file", "data/tle/active.txt")
	viper.SetDefault("tle.source_url", "")
	viper.SetDefault("tle.extra_urls", []string{})
	viper.SetDefault("tle.fetch", false)
	viper.SetDefault("tle.watch", true)
	viper.SetDefault("tle.max_bytes", 50<<20)
	viper.SetDefault("tle.cache_dir", "")
	viper.SetDefault("tle.cache_files", 5)
	viper.SetDefault("visibility.min_elevation", 10.0)
	viper.SetDefault("visibility.workers", runtime.NumCPU())
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates it.
func Load() (Config, error) {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that defaults cannot guarantee.
func (c Config) Validate() error {
	var errs []error
	if !(c.Mu > 0) {
		errs = append(errs, fmt.Errorf("mu must be positive, got %g", c.Mu))
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		errs = append(errs, errors.New("auth.token is required when auth is enabled"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.TLE.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("tle.max_bytes must be positive, got %d", c.TLE.MaxBytes))
	}
	if c.Visibility.MinElevation < -90 || c.Visibility.MinElevation > 90 {
		errs = append(errs, fmt.Errorf("visibility.min_elevation must be within [-90, 90], got %g", c.Visibility.MinElevation))
	}
	if c.Visibility.Workers < 1 {
		errs = append(errs, fmt.Errorf("visibility.workers must be at least 1, got %d", c.Visibility.Workers))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a configured level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}
