// Package config loads the command-line tool's settings from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDriver        = "RESTQUERY_DRIVER"
	EnvDSN           = "RESTQUERY_DSN"
	EnvSchemaDir     = "RESTQUERY_SCHEMA_DIR"
	EnvLogLevel      = "RESTQUERY_LOG_LEVEL"
	EnvLogFile       = "RESTQUERY_LOG_FILE"
	EnvPlanCacheSize = "RESTQUERY_PLAN_CACHE_SIZE"
)

// Config holds the resolved settings.
type Config struct {
	Driver        string
	DSN           string
	SchemaDir     string
	LogLevel      string
	LogFile       string // Empty logs to stderr only.
	PlanCacheSize int    // Zero or less disables the compiled-filter cache.

	// Warnings lists invalid values that were replaced by defaults. They are
	// collected here because the logger is built from this configuration.
	Warnings []string
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Driver:        "sqlite3",
		DSN:           "file:restquery.db?cache=shared",
		SchemaDir:     "./schemas",
		LogLevel:      "info",
		PlanCacheSize: 256,
	}
}

// Load reads the given .env files, when they exist, and then the environment.
// Variables already set in the environment take precedence over .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	def := Default()
	cfg := &Config{}
	cfg.Driver = getEnv(EnvDriver, def.Driver)
	cfg.DSN = getEnv(EnvDSN, def.DSN)
	cfg.SchemaDir = getEnv(EnvSchemaDir, def.SchemaDir)
	cfg.LogLevel = strings.ToLower(getEnv(EnvLogLevel, def.LogLevel))
	cfg.LogFile = getEnv(EnvLogFile, def.LogFile)
	cfg.PlanCacheSize = cfg.getEnvInt(EnvPlanCacheSize, def.PlanCacheSize)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not an integer, using %d", key, value, fallback))
		return fallback
	}
	return parsed
}
