// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Jobs     JobsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings. Driver is "sqlite" or "postgres";
// the postgres fields are ignored for sqlite.
type DatabaseConfig struct {
	Driver     string
	RawDSN     string // DATABASE_DSN, overrides the discrete postgres fields
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Debug      bool
	MaxRetries int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev               bool
	Migrations        bool
	Seed              bool
	LowStockThreshold int64
	DefaultPageSize   int
	AdminUsername     string
	AdminPassword     string
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// JobsConfig controls the background scheduler.
type JobsConfig struct {
	Enabled    bool
	ReportSpec string
}

// DSN returns the driver specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (d DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			RawDSN:     getEnv("DATABASE_DSN", ""),
			SQLitePath: getEnv("DB_PATH", "pos.db?_foreign_keys=1"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "pos"),
			Password:   getEnv("DB_PASSWORD", "pos123"),
			DBName:     getEnv("DB_NAME", "pos"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Debug:      getEnvBool("DB_DEBUG", false),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		App: AppConfig{
			Dev:               getEnvBool("DEV", true),
			Migrations:        getEnvBool("MIGRATIONS", false),
			Seed:              getEnvBool("DB_SEED", false),
			LowStockThreshold: int64(getEnvInt("LOW_STOCK_THRESHOLD", 10)),
			DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", 10),
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Secret:   getEnv("AUTH_SECRET", "devsessionsecret"),
			TokenTTL: getEnvDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		},
		Jobs: JobsConfig{
			Enabled:    getEnvBool("JOBS_ENABLED", false),
			ReportSpec: getEnv("REPORT_CRON", "55 23 * * *"),
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
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses values like "30m" or "12h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
