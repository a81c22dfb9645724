package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"Mu", cfg.Mu, 398600.4418},
		{"TrustProxy", cfg.TrustProxy, false},
		{"Auth.Enabled", cfg.Auth.Enabled, false},
		{"TLE.File", cfg.TLE.File, "data/tle/active.txt"},
		{"TLE.Fetch", cfg.TLE.Fetch, false},
		{"TLE.Watch", cfg.TLE.Watch, true},
		{"TLE.MaxBytes", cfg.TLE.MaxBytes, int64(50 << 20)},
		{"TLE.CacheFiles", cfg.TLE.CacheFiles, 5},
		{"Visibility.MinElevation", cfg.Visibility.MinElevation, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if cfg.Visibility.Workers < 1 {
		t.Errorf("Visibility.Workers = %d, want >= 1", cfg.Visibility.Workers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "http_addr",
			envKey: "LAUNCHCALC_HTTP_ADDR",
			envVal: ":9090",
			field:  func(c Config) any { return c.HTTPAddr },
			want:   ":9090",
		},
		{
			name:   "mu",
			envKey: "LAUNCHCALC_MU",
			envVal: "42828.37",
			field:  func(c Config) any { return c.Mu },
			want:   42828.37,
		},
		{
			name:   "tle.file",
			envKey: "LAUNCHCALC_TLE_FILE",
			envVal: "/srv/tle/stations.txt",
			field:  func(c Config) any { return c.TLE.File },
			want:   "/srv/tle/stations.txt",
		},
		{
			name:   "tle.fetch",
			envKey: "LAUNCHCALC_TLE_FETCH",
			envVal: "true",
			field:  func(c Config) any { return c.TLE.Fetch },
			want:   true,
		},
		{
			name:   "visibility.min_elevation",
			envKey: "LAUNCHCALC_VISIBILITY_MIN_ELEVATION",
			envVal: "25",
			field:  func(c Config) any { return c.Visibility.MinElevation },
			want:   25.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if got := tt.field(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad_ExplicitSet(t *testing.T) {
	resetViper()
	viper.Set("auth.enabled", true)
	viper.Set("auth.token", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Token != "s3cret" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"auth without token", "auth.enabled", true, "auth.token"},
		{"zero mu", "mu", 0.0, "mu must be positive"},
		{"negative mu", "mu", -1.0, "mu must be positive"},
		{"bad log level", "log_level", "verbose", "log_level"},
		{"elevation out of range", "visibility.min_elevation", 95.0, "min_elevation"},
		{"no workers", "visibility.workers", 0, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
