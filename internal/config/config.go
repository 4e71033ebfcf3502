package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Dashboard backend API
	APIBaseURL     string
	APITimeout     time.Duration
	RealtimeWSURL  string
	RefreshTimeout time.Duration

	// Logout broadcast transport. Empty RedisAddr selects the in-process bus.
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	BroadcastChannel string

	// Calendar account linking (consent URL construction only; the backend
	// performs the token exchange and sync).
	GoogleClientID       string
	GoogleRedirectURI    string
	MicrosoftClientID    string
	MicrosoftTenantID    string
	MicrosoftRedirectURI string

	// Stub backend (local development / tests)
	StubAddr      string
	StubJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
		APITimeout:     getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		RealtimeWSURL:  getEnv("REALTIME_WS_URL", ""),
		RefreshTimeout: getEnvAsDuration("REFRESH_TIMEOUT", 10*time.Second),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		BroadcastChannel: getEnv("BROADCAST_CHANNEL", "medidesk:dashboard:auth"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleRedirectURI:    getEnv("GOOGLE_REDIRECT_URI", ""),
		MicrosoftClientID:    getEnv("MICROSOFT_CLIENT_ID", ""),
		MicrosoftTenantID:    getEnv("MICROSOFT_TENANT_ID", "common"),
		MicrosoftRedirectURI: getEnv("MICROSOFT_REDIRECT_URI", ""),

		StubAddr:      getEnv("STUB_ADDR", ":8080"),
		StubJWTSecret: getEnv("STUB_JWT_SECRET", "dev-secret"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
