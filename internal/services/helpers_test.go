package services

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errInjected = errors.New("injected failure")

// fixedNow is the clock used across service tests.
var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetOutput(io.Discard)
	return dbtest.Open(t)
}

func seedProduct(t *testing.T, gdb *gorm.DB, name, barcode string, price, qty int64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Barcode: barcode, Price: price, Quantity: qty}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func quantityOf(t *testing.T, gdb *gorm.DB, id uint) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, gdb.First(&p, id).Error)
	return p.Quantity
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

// failCreate makes the nth insert into table fail.
func failCreate(t *testing.T, gdb *gorm.DB, table string, nth int) {
	t.Helper()
	seen := 0
	err := gdb.Callback().Create().Before("gorm:create").Register("test:fail_create_"+table, func(tx *gorm.DB) {
		if tx.Statement.Schema == nil || tx.Statement.Schema.Table != table {
			return
		}
		seen++
		if seen == nth {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)
}

// failDelete makes every delete from table fail.
func failDelete(t *testing.T, gdb *gorm.DB, table string) {
	t.Helper()
	err := gdb.Callback().Delete().Before("gorm:delete").Register("test:fail_delete_"+table, func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == table {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)
}
