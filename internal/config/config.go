// Package config provides configuration management for the trading agent.
//
// Configuration is loaded in two layers, mirroring how the teacher system
// splits secrets from domain configuration:
//  1. Environment variables (.env via godotenv) for process knobs and
//     credentials: database path, log directory, the Kalshi key pair, the
//     kill switch.
//  2. A structured YAML file for the domain configuration enumerated in
//     spec.md §6: trading windows, per-city station config, and risk limits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration loaded from the environment.
type Config struct {
	DBPath            string // SQLite database path
	LogDir            string // Directory for log files and event side-logs
	LogLevel          string // debug, info, warn, error
	UseDemo           bool   // Use Kalshi demo environment
	KillSwitch        bool   // Process-wide read-only flag; true blocks all order placement
	DomainConfigPath  string // Path to the domain YAML config (cities, kalshi, risk)
	KalshiAPIKeyID    string // Kalshi API key id
	KalshiPrivateKey  string // Path to the PEM-encoded RSA private key
	CollectorInterval int    // Minutes between weather-ingest passes

	S3BackupEnabled     bool   // Nightly ledger backup to S3; optional, off by default
	S3BackupBucket      string // Destination bucket for ledger backups
	S3BackupRegion      string // AWS region for the backup bucket
	BackupRetentionDays int    // Days to retain backups before rotation; 0 = keep forever
}

// Load reads process configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", "./data/weather.db"),
		LogDir:            getEnv("LOG_DIR", "./logs"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		UseDemo:           getEnvAsBool("USE_DEMO", false),
		KillSwitch:        getEnvAsBool("KILL_SWITCH", false),
		DomainConfigPath:  getEnv("CONFIG_PATH", "./config.yaml"),
		KalshiAPIKeyID:    getEnv("KALSHI_API_KEY_ID", ""),
		KalshiPrivateKey:  getEnv("KALSHI_PRIVATE_KEY_PATH", ""),
		CollectorInterval: getEnvAsInt("COLLECTOR_INTERVAL_MIN", 5),

		S3BackupEnabled:     getEnvAsBool("S3_BACKUP_ENABLED", false),
		S3BackupBucket:      getEnv("S3_BACKUP_BUCKET", ""),
		S3BackupRegion:      getEnv("S3_BACKUP_REGION", "us-east-1"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 14),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required process configuration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	// Kalshi credentials are optional at process-config level: paper mode
	// runs without them, and --live fails fast later when the signer is
	// actually needed.
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
