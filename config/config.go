// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"storefront-order-engine/codec"
	"storefront-order-engine/lifecycle"
	"storefront-order-engine/models"
)

const (
	DefaultTemporalAddress = "localhost:7233"
	DefaultBuildID         = "1.0.0"
	DefaultRedisAddr       = "localhost:6379"
	DefaultOrderDBPath     = "orders.db"
)

// DefaultOrigin is the store the delivery fee is measured from (New Delhi).
var DefaultOrigin = models.Coordinates{Lat: 28.6139, Lng: 77.2090}

type Config struct {
	TemporalAddress string
	BuildID         string
	RedisAddr       string
	OrderDBPath     string

	// EncryptionKey is generated when ENCRYPTION_KEY is unset; KeyGenerated
	// is then true and the key must be shared with every other process.
	EncryptionKey []byte
	KeyGenerated  bool

	CancelWindow time.Duration
	Origin       models.Coordinates

	LogLevel  string
	LogFormat string
}

func Default() Config {
	return Config{
		TemporalAddress: DefaultTemporalAddress,
		BuildID:         DefaultBuildID,
		RedisAddr:       DefaultRedisAddr,
		OrderDBPath:     DefaultOrderDBPath,
		CancelWindow:    lifecycle.DefaultWindow,
		Origin:          DefaultOrigin,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load overrides Default with whatever is set in the environment.
func Load() (Config, error) {
	cfg := Default()

	cfg.TemporalAddress = GetEnv("TEMPORAL_ADDRESS", cfg.TemporalAddress)
	cfg.BuildID = GetEnv("BUILD_ID", cfg.BuildID)
	cfg.RedisAddr = GetEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.OrderDBPath = GetEnv("ORDER_DB_PATH", cfg.OrderDBPath)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = GetEnv("LOG_FORMAT", cfg.LogFormat)

	if hexKey := GetEnv("ENCRYPTION_KEY", ""); hexKey != "" {
		key, err := codec.ParseKey(hexKey)
		if err != nil {
			return cfg, fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
		cfg.EncryptionKey = key
	} else {
		key, err := codec.GenerateKey()
		if err != nil {
			return cfg, err
		}
		cfg.EncryptionKey = key
		cfg.KeyGenerated = true
	}

	if s := GetEnv("CANCEL_WINDOW", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("CANCEL_WINDOW must be a positive duration, got %q", s)
		}
		cfg.CancelWindow = d
	}

	var err error
	if cfg.Origin.Lat, err = floatEnv("ORIGIN_LAT", cfg.Origin.Lat, 90); err != nil {
		return cfg, err
	}
	if cfg.Origin.Lng, err = floatEnv("ORIGIN_LNG", cfg.Origin.Lng, 180); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// GetEnv returns the value of key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback, limit float64) (float64, error) {
	s := GetEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -limit || v > limit {
		return fallback, fmt.Errorf("%s must be a number in [-%g, %g], got %q", key, limit, limit, s)
	}
	return v, nil
}
