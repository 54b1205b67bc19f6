// Package config provides application configuration loaded from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Storage  StorageConfig
	Database DatabaseConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// APIConfig points at the backend REST server.
type APIConfig struct {
	BaseURL  string
	Token    string
	TenantID string
	Timeout  time.Duration
}

// StorageConfig selects the object store used for uploads.
type StorageConfig struct {
	Driver          string // s3 | memory
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	// PublicBaseURL is used to build file URLs when the driver cannot presign.
	PublicBaseURL string
	URLExpiry     time.Duration
}

// DatabaseConfig holds the local audit database settings.
type DatabaseConfig struct {
	// DSN is a postgres URL or key=value list, or a sqlite file path.
	DSN   string
	Debug bool
}

// IsPostgres reports whether the DSN targets PostgreSQL.
func (d DatabaseConfig) IsPostgres() bool {
	l := strings.ToLower(d.DSN)
	return strings.HasPrefix(l, "postgres://") || strings.HasPrefix(l, "postgresql://") || strings.Contains(l, "host=")
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	// DraftIdle is how long an untouched draft stays open.
	DraftIdle time.Duration
	Location  string
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		API: APIConfig{
			BaseURL:  getEnv("API_URL", "http://localhost:3000"),
			Token:    getEnv("API_TOKEN", ""),
			TenantID: getEnv("TENANT_ID", "default"),
			Timeout:  getEnvDuration("API_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Driver:          getEnv("STORAGE_DRIVER", "memory"),
			Bucket:          getEnv("STORAGE_S3_BUCKET", ""),
			Region:          getEnv("STORAGE_S3_REGION", "us-east-1"),
			Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PathStyle:       getEnvBool("STORAGE_S3_PATH_STYLE", false),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_URL", "/files"),
			URLExpiry:       getEnvDuration("STORAGE_URL_EXPIRY", 7*24*time.Hour),
		},
		Database: DatabaseConfig{
			DSN:   getEnv("DATABASE_DSN", "eventdesk.db"),
			Debug: getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
			DraftIdle:  getEnvDuration("DRAFT_IDLE", 2*time.Hour),
			Location:   getEnv("TZ_LOCATION", "UTC"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration accepts Go durations ("90s") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if i, err := strconv.Atoi(value); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}
