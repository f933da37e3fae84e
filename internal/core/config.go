package core

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the single source of truth for environment-specific settings.
//
// Two built-in profiles exist (development and production); individual
// values can be overridden through ECOTRACE_* environment variables.
// Components read named values from here and never hardcode them.
type Config struct {
	Environment string `env:"ECOTRACE_ENV"`

	// API configuration
	APIBaseURL string `env:"ECOTRACE_API_URL"`

	// Network configuration
	NetworkTimeout        time.Duration `env:"ECOTRACE_NETWORK_TIMEOUT"`
	ConnectionTestTimeout time.Duration `env:"ECOTRACE_CONNECTION_TEST_TIMEOUT"`

	// Cache duration tiers
	CacheDurations CacheDurations

	// Retry presets per scenario
	Retry RetryPresets

	// Debug controls verbose diagnostic logging.
	Debug bool `env:"ECOTRACE_DEBUG"`
}

// CacheDurations holds the four cache expiration tiers.
type CacheDurations struct {
	Short    time.Duration `env:"ECOTRACE_CACHE_SHORT"`
	Medium   time.Duration `env:"ECOTRACE_CACHE_MEDIUM"`
	Long     time.Duration `env:"ECOTRACE_CACHE_LONG"`
	VeryLong time.Duration `env:"ECOTRACE_CACHE_VERY_LONG"`
}

// RetrySettings is the tunable parameter bundle for one retry scenario.
type RetrySettings struct {
	MaxAttempts       int
	Delay             time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
}

// RetryPresets holds the four named retry scenarios.
//
// Critical: aggressive retries for operations that must succeed.
// Normal: bulk API calls. Background: operations that may fail silently.
// UserAction: user-initiated actions that should retry quickly.
type RetryPresets struct {
	Critical   RetrySettings
	Normal     RetrySettings
	Background RetrySettings
	UserAction RetrySettings
}

func defaultRetryPresets() RetryPresets {
	return RetryPresets{
		Critical:   RetrySettings{MaxAttempts: 5, Delay: 500 * time.Millisecond, BackoffMultiplier: 1.5, MaxDelay: 5 * time.Second},
		Normal:     RetrySettings{MaxAttempts: 3, Delay: 1 * time.Second, BackoffMultiplier: 2.0, MaxDelay: 8 * time.Second},
		Background: RetrySettings{MaxAttempts: 2, Delay: 2 * time.Second, BackoffMultiplier: 2.0, MaxDelay: 10 * time.Second},
		UserAction: RetrySettings{MaxAttempts: 3, Delay: 500 * time.Millisecond, BackoffMultiplier: 1.8, MaxDelay: 3 * time.Second},
	}
}

// DevelopmentConfig returns the development profile.
// Shorter cache durations so stale data surfaces quickly while iterating.
func DevelopmentConfig() Config {
	return Config{
		Environment:           EnvDevelopment,
		APIBaseURL:            DevelopmentAPIURL,
		NetworkTimeout:        10 * time.Second,
		ConnectionTestTimeout: 5 * time.Second,
		CacheDurations: CacheDurations{
			Short:    1 * time.Minute,
			Medium:   3 * time.Minute,
			Long:     10 * time.Minute,
			VeryLong: 30 * time.Minute,
		},
		Retry: defaultRetryPresets(),
		Debug: true,
	}
}

// ProductionConfig returns the production profile.
func ProductionConfig() Config {
	return Config{
		Environment:           EnvProduction,
		APIBaseURL:            ProductionAPIURL,
		NetworkTimeout:        15 * time.Second,
		ConnectionTestTimeout: 8 * time.Second,
		CacheDurations: CacheDurations{
			Short:    2 * time.Minute,
			Medium:   5 * time.Minute,
			Long:     15 * time.Minute,
			VeryLong: 60 * time.Minute,
		},
		Retry: defaultRetryPresets(),
		Debug: false,
	}
}

// Load selects the profile for the given environment name and applies
// ECOTRACE_* overrides from the process environment on top of it.
func Load(environment string) (Config, error) {
	var cfg Config
	switch environment {
	case EnvProduction, "":
		cfg = ProductionConfig()
	case EnvDevelopment:
		cfg = DevelopmentConfig()
	default:
		return Config{}, fmt.Errorf("unknown environment %q", environment)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}
