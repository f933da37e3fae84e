package core

import (
	"testing"
	"time"
)

func TestProfiles(t *testing.T) {
	dev := DevelopmentConfig()
	if dev.APIBaseURL != DevelopmentAPIURL {
		t.Errorf("dev URL = %q", dev.APIBaseURL)
	}
	if dev.NetworkTimeout != 10*time.Second || dev.ConnectionTestTimeout != 5*time.Second {
		t.Errorf("dev timeouts = %v/%v", dev.NetworkTimeout, dev.ConnectionTestTimeout)
	}
	if dev.CacheDurations.Medium != 3*time.Minute {
		t.Errorf("dev medium cache = %v", dev.CacheDurations.Medium)
	}

	prod := ProductionConfig()
	if prod.APIBaseURL != ProductionAPIURL {
		t.Errorf("prod URL = %q", prod.APIBaseURL)
	}
	if prod.NetworkTimeout != 15*time.Second || prod.ConnectionTestTimeout != 8*time.Second {
		t.Errorf("prod timeouts = %v/%v", prod.NetworkTimeout, prod.ConnectionTestTimeout)
	}
	if prod.CacheDurations.VeryLong != 60*time.Minute {
		t.Errorf("prod very long cache = %v", prod.CacheDurations.VeryLong)
	}
}

func TestRetryPresets(t *testing.T) {
	presets := defaultRetryPresets()

	if presets.Critical.MaxAttempts != 5 || presets.Critical.Delay != 500*time.Millisecond {
		t.Errorf("critical = %+v", presets.Critical)
	}
	if presets.Normal.MaxAttempts != 3 || presets.Normal.BackoffMultiplier != 2.0 {
		t.Errorf("normal = %+v", presets.Normal)
	}
	if presets.Background.MaxAttempts != 2 || presets.Background.MaxDelay != 10*time.Second {
		t.Errorf("background = %+v", presets.Background)
	}
	if presets.UserAction.MaxDelay != 3*time.Second || presets.UserAction.BackoffMultiplier != 1.8 {
		t.Errorf("userAction = %+v", presets.UserAction)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvProduction {
		t.Errorf("default environment = %q, want production", cfg.Environment)
	}

	cfg, err = Load(EnvDevelopment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("environment = %q", cfg.Environment)
	}

	if _, err := Load("staging"); err == nil {
		t.Error("unknown environment should fail")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ECOTRACE_API_URL", "http://localhost:9999/api")
	t.Setenv("ECOTRACE_NETWORK_TIMEOUT", "30s")
	t.Setenv("ECOTRACE_CACHE_MEDIUM", "7m")

	cfg, err := Load(EnvProduction)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:9999/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.NetworkTimeout != 30*time.Second {
		t.Errorf("NetworkTimeout = %v", cfg.NetworkTimeout)
	}
	if cfg.CacheDurations.Medium != 7*time.Minute {
		t.Errorf("Medium = %v", cfg.CacheDurations.Medium)
	}
}
