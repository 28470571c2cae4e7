// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/krishisetu/krishisetu/internal/modules/settings"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the database and backups, always absolute
	Port      int
	DevMode   bool
	LogLevel  string
	LogPretty bool

	CORSAllowedOrigins []string

	// External advisory services (both optional; rule-based fallbacks apply)
	GroqAPIKey   string
	GroqModel    string
	TavilyAPIKey string

	SessionTTLHours int

	// Cron schedules (six-field, with seconds)
	AdvisoryAgentSchedule string
	DemandAgentSchedule   string
	SessionReaperSchedule string
	CheckpointSchedule    string
	BackupSchedule        string

	Backup BackupConfig
}

// BackupConfig holds S3-compatible backup storage configuration.
// Backups are disabled when Bucket is empty.
type BackupConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // Optional, for S3-compatible stores
	AccessKeyID   string
	SecretKey     string
	Prefix        string
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("KRISHISETU_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("PORT", 8000),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),

		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 72),

		AdvisoryAgentSchedule: getEnv("ADVISORY_AGENT_SCHEDULE", "0 0 6 * * *"),
		DemandAgentSchedule:   getEnv("DEMAND_AGENT_SCHEDULE", "0 30 6 * * *"),
		SessionReaperSchedule: getEnv("SESSION_REAPER_SCHEDULE", "0 15 * * * *"),
		CheckpointSchedule:    getEnv("CHECKPOINT_SCHEDULE", "0 45 * * * *"),
		BackupSchedule:        getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),

		Backup: BackupConfig{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			AccessKeyID:   getEnv("S3_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:        getEnv("S3_PREFIX", "backups"),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// This should be called after the database is initialized.
// Settings DB values take precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	groqKey, err := settingsRepo.Get("groq_api_key")
	if err != nil {
		return fmt.Errorf("failed to get groq_api_key from settings: %w", err)
	}
	if groqKey != nil && *groqKey != "" {
		c.GroqAPIKey = *groqKey
	}

	tavilyKey, err := settingsRepo.Get("tavily_api_key")
	if err != nil {
		return fmt.Errorf("failed to get tavily_api_key from settings: %w", err)
	}
	if tavilyKey != nil && *tavilyKey != "" {
		c.TavilyAPIKey = *tavilyKey
	}

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("session TTL must be positive, got %d", c.SessionTTLHours)
	}
	return nil
}

// DatabasePath returns the path of the application database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "krishisetu.db")
}

// Helper functions
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
