// Package config loads library configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all skyvault configuration. Environment variables carry the
// SKYVAULT_ prefix (SKYVAULT_ROOT, SKYVAULT_S3_BUCKET, ...).
type Config struct {
	Root    string `envconfig:"ROOT" default:"./vault"`
	Logging LogConfig
	S3      S3Config
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// S3Config holds cloud backend configuration. The cloud backend is only
// attempted when a bucket is set.
type S3Config struct {
	Bucket          string `envconfig:"S3_BUCKET"`
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	Prefix          string `envconfig:"S3_PREFIX"`
	CacheDir        string `envconfig:"S3_CACHE_DIR"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	SessionToken    string `envconfig:"S3_SESSION_TOKEN"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("skyvault", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns the
// default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Root: "./vault",
		Logging: LogConfig{
			Level: "info",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// CloudEnabled reports whether the cloud backend should be attempted.
func (c *Config) CloudEnabled() bool {
	return c.S3.Bucket != ""
}
