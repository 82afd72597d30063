package config

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-order-engine/codec"
)

var envKeys = []string{
	"TEMPORAL_ADDRESS", "ENCRYPTION_KEY", "BUILD_ID", "REDIS_ADDR", "ORDER_DB_PATH",
	"CANCEL_WINDOW", "ORIGIN_LAT", "ORIGIN_LNG", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultTemporalAddress, cfg.TemporalAddress)
	assert.Equal(t, DefaultBuildID, cfg.BuildID)
	assert.Equal(t, DefaultRedisAddr, cfg.RedisAddr)
	assert.Equal(t, DefaultOrderDBPath, cfg.OrderDBPath)
	assert.Equal(t, 60*time.Second, cfg.CancelWindow)
	assert.Equal(t, DefaultOrigin, cfg.Origin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.KeyGenerated)
	assert.Len(t, cfg.EncryptionKey, codec.KeySize)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	key := strings.Repeat("ab", codec.KeySize)

	t.Setenv("TEMPORAL_ADDRESS", "temporal:7233")
	t.Setenv("ENCRYPTION_KEY", key)
	t.Setenv("BUILD_ID", "2.0.0")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ORDER_DB_PATH", "/data/orders.db")
	t.Setenv("CANCEL_WINDOW", "90s")
	t.Setenv("ORIGIN_LAT", "19.0760")
	t.Setenv("ORIGIN_LNG", "72.8777")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "temporal:7233", cfg.TemporalAddress)
	assert.Equal(t, key, hex.EncodeToString(cfg.EncryptionKey))
	assert.False(t, cfg.KeyGenerated)
	assert.Equal(t, "2.0.0", cfg.BuildID)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "/data/orders.db", cfg.OrderDBPath)
	assert.Equal(t, 90*time.Second, cfg.CancelWindow)
	assert.InDelta(t, 19.0760, cfg.Origin.Lat, 1e-9)
	assert.InDelta(t, 72.8777, cfg.Origin.Lng, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "Key not hex", key: "ENCRYPTION_KEY", value: "not-hex", wantErr: "ENCRYPTION_KEY"},
		{name: "Key too short", key: "ENCRYPTION_KEY", value: "abcd", wantErr: "32 bytes"},
		{name: "Window not a duration", key: "CANCEL_WINDOW", value: "soon", wantErr: "CANCEL_WINDOW"},
		{name: "Window negative", key: "CANCEL_WINDOW", value: "-5s", wantErr: "CANCEL_WINDOW"},
		{name: "Latitude out of range", key: "ORIGIN_LAT", value: "91", wantErr: "ORIGIN_LAT"},
		{name: "Longitude not a number", key: "ORIGIN_LNG", value: "east", wantErr: "ORIGIN_LNG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_VALUE", "")
	assert.Equal(t, "fallback", GetEnv("STOREFRONT_TEST_VALUE", "fallback"))

	t.Setenv("STOREFRONT_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("STOREFRONT_TEST_VALUE", "fallback"))
}
