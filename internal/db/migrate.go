package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// requiredTables must exist once migrations have run.
var requiredTables = []string{
	"categories", "products", "customers", "invoices", "invoice_items", "users", "stock_movements",
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.User{},
		&models.StockMovement{},
	}
}

// Migrate brings the schema up to date. With app.Migrations set on postgres
// the embedded SQL migrations run through golang-migrate; otherwise gorm
// AutoMigrate is used.
func Migrate(gdb *gorm.DB, dbCfg config.DatabaseConfig, app config.AppConfig) error {
	if app.Migrations && !dbCfg.IsSQLite() {
		logger.Info("running sql migrations")
		if err := runSQLMigrations(migrationURL(dbCfg)); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(gdb); err != nil {
		return err
	}
	return checkTables(gdb)
}

// AutoMigrate creates or updates tables from the gorm models.
func AutoMigrate(gdb *gorm.DB) error {
	for _, m := range Models() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func checkTables(gdb *gorm.DB) error {
	for _, table := range requiredTables {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
