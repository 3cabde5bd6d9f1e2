package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("http port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Errorf("read timeout = %s, want 10s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Uploads.MaxBytes != 5<<20 {
		t.Errorf("upload limit = %d, want %d", cfg.Uploads.MaxBytes, 5<<20)
	}
	if cfg.Redis.CarInfoTTL != 5*time.Minute {
		t.Errorf("car info ttl = %s, want 5m", cfg.Redis.CarInfoTTL)
	}
	if cfg.Redis.Enabled() {
		t.Errorf("redis should be disabled without an addr")
	}
	if cfg.Auth.Enabled() {
		t.Errorf("auth should be disabled without credentials")
	}
	if cfg.Archive.Enabled() {
		t.Errorf("archive should be disabled without an endpoint")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLATEWATCH_HTTP_PORT", "9090")
	t.Setenv("PLATEWATCH_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("PLATEWATCH_AUTH_USERNAME", "admin")
	t.Setenv("PLATEWATCH_AUTH_PASSWORD", "sekrit")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("http port = %d, want 9090", cfg.HTTP.Port)
	}
	if !cfg.Redis.Enabled() {
		t.Errorf("redis addr from env did not enable the cache")
	}
	if !cfg.Auth.Enabled() {
		t.Errorf("credentials from env did not enable auth")
	}
}
