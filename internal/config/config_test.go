package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		setEnv(t, key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "PORT", "ENV", "LOG_LEVEL", "MODEL_PATH", "DATABASE_URL",
		"PEER_URL", "PUBLISH_PEER_URL", "RELAY_TIMEOUT", "RELAY_RETRIES", "RATE_LIMIT_RPM")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, DefaultRelayTimeout, cfg.RelayTimeout)
	assert.Equal(t, DefaultRelayRetries, cfg.RelayRetries)
	assert.Empty(t, cfg.PeerURL)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "ENV", "production")
	setEnv(t, "MODEL_PATH", "/opt/models/fraud.json")
	setEnv(t, "RELAY_TIMEOUT", "3s")
	setEnv(t, "RELAY_RETRIES", "7")
	setEnv(t, "RATE_LIMIT_RPM", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/opt/models/fraud.json", cfg.ModelPath)
	assert.Equal(t, 3*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 7, cfg.RelayRetries)
	assert.Equal(t, 60, cfg.RateLimitRPM)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_PublishPeerDefaultsToPeer(t *testing.T) {
	setEnv(t, "PEER_URL", "ws://peer:4000/ws")
	clearEnv(t, "PUBLISH_PEER_URL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://peer:4000/ws", cfg.PublishPeerURL)
}

func TestLoad_DistinctPublishPeer(t *testing.T) {
	setEnv(t, "PEER_URL", "ws://peer:4000/ws")
	setEnv(t, "PUBLISH_PEER_URL", "ws://sink:4001/ws")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://sink:4001/ws", cfg.PublishPeerURL)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		ModelPath:    "models/frauddetection.json",
		RelayTimeout: time.Second,
		RelayRetries: 1,
	}
	assert.NoError(t, valid.Validate())

	noModel := *valid
	noModel.ModelPath = ""
	assert.Error(t, noModel.Validate())

	badTimeout := *valid
	badTimeout.RelayTimeout = 0
	assert.Error(t, badTimeout.Validate())

	badRetries := *valid
	badRetries.RelayRetries = 0
	assert.Error(t, badRetries.Validate())
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setEnv(t, "RELAY_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRelayTimeout, cfg.RelayTimeout)
}
