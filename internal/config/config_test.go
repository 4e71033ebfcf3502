package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("BROADCAST_CHANNEL", "")
	cfg := Load()
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("expected default api base url, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("expected default api timeout, got %s", cfg.APITimeout)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected redis disabled by default, got %s", cfg.RedisAddr)
	}
	if cfg.BroadcastChannel != "medidesk:dashboard:auth" {
		t.Fatalf("expected default broadcast channel, got %s", cfg.BroadcastChannel)
	}
	if cfg.MicrosoftTenantID != "common" {
		t.Fatalf("expected default microsoft tenant, got %s", cfg.MicrosoftTenantID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_BASE_URL", "https://api.clinic.example")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("REALTIME_WS_URL", "wss://api.clinic.example/dashboard/events")
	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level override, got %s", cfg.LogLevel)
	}
	if cfg.APIBaseURL != "https://api.clinic.example" {
		t.Fatalf("expected api base url override, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Fatalf("expected api timeout override, got %s", cfg.APITimeout)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.RealtimeWSURL == "" {
		t.Fatalf("expected realtime ws url override")
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("API_TIMEOUT", "not-a-duration")
	cfg := Load()
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.APITimeout)
	}
}
