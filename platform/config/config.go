// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides Redis and asynq settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
}

// IntakeConfig provides settings for lead submission.
type IntakeConfig interface {
	GetPhoneDefaultRegion() string
	GetLeadDedupeWindow() time.Duration
	GetPublicSubmitRatePerMinute() int
}

// AssignmentConfig provides settings for the assignment engine.
type AssignmentConfig interface {
	GetAssignmentMaxAttempts() int
}

// MaintenanceConfig provides settings for periodic lead maintenance.
type MaintenanceConfig interface {
	GetReconcileInterval() time.Duration
	GetDrainInterval() time.Duration
	GetDrainBatchSize() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	JWTAccessSecret           string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	PhoneDefaultRegion        string
	LeadDedupeWindow          time.Duration
	PublicSubmitRatePerMinute int
	AssignmentMaxAttempts     int
	ReconcileInterval         time.Duration
	DrainInterval             time.Duration
	DrainBatchSize            int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// IntakeConfig implementation
func (c *Config) GetPhoneDefaultRegion() string      { return c.PhoneDefaultRegion }
func (c *Config) GetLeadDedupeWindow() time.Duration { return c.LeadDedupeWindow }
func (c *Config) GetPublicSubmitRatePerMinute() int  { return c.PublicSubmitRatePerMinute }

// AssignmentConfig implementation
func (c *Config) GetAssignmentMaxAttempts() int { return c.AssignmentMaxAttempts }

// MaintenanceConfig implementation
func (c *Config) GetReconcileInterval() time.Duration { return c.ReconcileInterval }
func (c *Config) GetDrainInterval() time.Duration     { return c.DrainInterval }
func (c *Config) GetDrainBatchSize() int              { return c.DrainBatchSize }

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool { return strings.EqualFold(c.Env, "development") }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:          mustInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		PhoneDefaultRegion:        strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "NL")),
		LeadDedupeWindow:          mustDuration(getEnv("LEAD_DEDUPE_WINDOW", "10m")),
		PublicSubmitRatePerMinute: mustInt(getEnv("PUBLIC_SUBMIT_RATE_PER_MINUTE", "10"), 10),
		AssignmentMaxAttempts:     mustInt(getEnv("ASSIGNMENT_MAX_ATTEMPTS", "5"), 5),
		ReconcileInterval:         mustDuration(getEnv("RECONCILE_INTERVAL", "15m")),
		DrainInterval:             mustDuration(getEnv("DRAIN_INTERVAL", "1m")),
		DrainBatchSize:            mustInt(getEnv("DRAIN_BATCH_SIZE", "50"), 50),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.AssignmentMaxAttempts < 1 {
		return nil, fmt.Errorf("ASSIGNMENT_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.PublicSubmitRatePerMinute < 1 {
		return nil, fmt.Errorf("PUBLIC_SUBMIT_RATE_PER_MINUTE must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string, fallback int) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
