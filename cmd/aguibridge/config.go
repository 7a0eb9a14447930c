package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the bridge configuration. Values come from an optional
// TOML file, overridden by environment variables (with .env support).
type Config struct {
	// Server
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"` // debug, info, warn, error

	// Agent Engine deployment
	ProjectID string `toml:"project_id"`
	Location  string `toml:"location"`
	EngineID  string `toml:"engine_id"`

	// AccessToken, when set, is used instead of the gcloud CLI.
	AccessToken string `toml:"access_token"`

	// Per-run ceiling on the upstream stream.
	StreamTimeout time.Duration `toml:"-"`

	// Metadata retention
	MetadataTTL   time.Duration `toml:"-"`
	SweepInterval time.Duration `toml:"-"`
}

// LoadConfig loads configuration. Order: defaults, then the TOML file
// named by BRIDGE_CONFIG (or ./config.toml when present), then
// environment variables. A .env file is loaded first if present.
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:          "8000",
		LogLevel:      "info",
		Location:      "us-central1",
		StreamTimeout: 10 * time.Minute,
		MetadataTTL:   60 * time.Minute,
		SweepInterval: 5 * time.Minute,
	}

	if path := configFilePath(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnvOrDefault("BRIDGE_PORT", cfg.Port)
	cfg.LogLevel = getEnvOrDefault("BRIDGE_LOG_LEVEL", cfg.LogLevel)
	cfg.ProjectID = getEnvOrDefault("GCP_PROJECT_ID", cfg.ProjectID)
	cfg.Location = getEnvOrDefault("GCP_LOCATION", cfg.Location)
	cfg.EngineID = getEnvOrDefault("AGENT_ENGINE_ID", cfg.EngineID)
	cfg.AccessToken = getEnvOrDefault("GOOGLE_ACCESS_TOKEN", cfg.AccessToken)
	cfg.StreamTimeout = getEnvDurationOrDefault("BRIDGE_STREAM_TIMEOUT", cfg.StreamTimeout)
	cfg.MetadataTTL = getEnvDurationOrDefault("BRIDGE_METADATA_TTL", cfg.MetadataTTL)
	cfg.SweepInterval = getEnvDurationOrDefault("BRIDGE_SWEEP_INTERVAL", cfg.SweepInterval)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required")
	}
	if c.Location == "" {
		return fmt.Errorf("GCP_LOCATION is required")
	}
	if c.EngineID == "" {
		return fmt.Errorf("AGENT_ENGINE_ID is required")
	}
	return nil
}

func configFilePath() string {
	if path := os.Getenv("BRIDGE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
