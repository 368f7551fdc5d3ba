package db

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var passwordRe = regexp.MustCompile(`(password=)([^\s]+)`)

// Open connects to the configured database, retrying while the server comes up.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := connectionString(cfg)
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN for driver %q", cfg.Driver)
	}

	logLevel := gormlogger.Silent
	if cfg.Debug {
		logLevel = gormlogger.Info
	}
	gcfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var db *gorm.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector(cfg, dsn), gcfg)
		if err == nil {
			break
		}
		logger.Warn("database connection attempt %d/%d failed: %v", i+1, attempts, err)
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	logger.Info("connected to %s database: %s", driverName(cfg), MaskDSN(dsn))
	return db, nil
}

func dialector(cfg config.DatabaseConfig, dsn string) gorm.Dialector {
	if cfg.IsSQLite() {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.IsSQLite() {
		return "sqlite"
	}
	return "postgres"
}

func connectionString(cfg config.DatabaseConfig) string {
	if !cfg.IsSQLite() && cfg.RawDSN != "" {
		return NormalizeDSN(cfg.RawDSN)
	}
	return cfg.DSN()
}

// migrationURL returns the URL form golang-migrate expects.
func migrationURL(cfg config.DatabaseConfig) string {
	if cfg.RawDSN != "" {
		return ToURLDSN(NormalizeDSN(cfg.RawDSN))
	}
	return cfg.URL()
}

// MaskDSN hides the password of a key=value or URL style DSN.
func MaskDSN(dsn string) string {
	masked := dsn
	if strings.Contains(masked, "password=") {
		masked = passwordRe.ReplaceAllString(masked, `${1}***`)
	}
	if i := strings.Index(masked, "://"); i >= 0 {
		if at := strings.Index(masked[i+3:], "@"); at >= 0 {
			userinfo := masked[i+3 : i+3+at]
			if colon := strings.Index(userinfo, ":"); colon >= 0 {
				masked = masked[:i+3] + userinfo[:colon] + ":***" + masked[i+3+at:]
			}
		}
	}
	return masked
}
