package config

import (
	"fmt"
	"os"
	"time"
)

// ServerConfig configures the reference auth API
type ServerConfig struct {
	Addr           string
	RedisURL       string // empty keeps revocations and events in process
	DBPath         string // empty keeps users in memory
	SigningKeyPath string // empty generates an ephemeral key
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// LoadServerConfig reads the server settings from the environment
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Addr:           ":" + getEnv("PORT", "8080"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DBPath:         os.Getenv("DB_PATH"),
		SigningKeyPath: os.Getenv("SIGNING_KEY_PATH"),
	}

	var err error
	if cfg.AccessTTL, err = getEnvDuration("ACCESS_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = getEnvDuration("REFRESH_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env var '%s' could not be parsed as duration (%q): %w", name, v, err)
	}
	return d, nil
}
