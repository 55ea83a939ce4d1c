// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Classifier
	ModelPath string // Path to the model artifact; load failure degrades to unavailable

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Relay bridge
	PeerURL        string        // WebSocket URL of the inbound transaction peer (optional, bridge off if not set)
	PublishPeerURL string        // Outbound analysis peer; defaults to PeerURL when empty
	RelayTimeout   time.Duration // Per-publish write timeout
	RelayRetries   int           // Max attempts per outbound publish

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; tracing disabled when empty

	// HTTP hardening
	RateLimitRPM   int
	AllowedOrigins []string
}

// Defaults.
const (
	DefaultPort         = "8001"
	DefaultEnv          = "development"
	DefaultLogLevel     = "info"
	DefaultModelPath    = "models/frauddetection.json"
	DefaultRelayTimeout = 10 * time.Second
	DefaultRelayRetries = 3
	DefaultRateLimit    = 120
)

// Load reads configuration from environment variables.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		Env:            getEnv("ENV", DefaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		ModelPath:      getEnv("MODEL_PATH", DefaultModelPath),
		DatabaseURL:    os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		PeerURL:        os.Getenv("PEER_URL"),     // Optional, bridge disabled if not set
		PublishPeerURL: os.Getenv("PUBLISH_PEER_URL"),
		RelayTimeout:   getEnvDuration("RELAY_TIMEOUT", DefaultRelayTimeout),
		RelayRetries:   int(getEnvInt64("RELAY_RETRIES", DefaultRelayRetries)),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:   int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimit)),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},
	}
	if cfg.PublishPeerURL == "" {
		cfg.PublishPeerURL = cfg.PeerURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH must not be empty")
	}
	if c.RelayTimeout <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT must be positive")
	}
	if c.RelayRetries < 1 {
		return fmt.Errorf("RELAY_RETRIES must be at least 1")
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
