package repository

import (
	"context"
	"time"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"gorm.io/gorm"
)

// InvoiceRepository is the invoice ledger: headers plus their line items.
// It never touches product stock.
type InvoiceRepository interface {
	Repository[models.Invoice]
	// GetWithItems loads the invoice and its items in insertion order.
	GetWithItems(ctx context.Context, id uint) (*models.Invoice, error)
	// ListByDateRange returns invoices dated in [from, to), oldest first.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Invoice, error)
	CreateItem(ctx context.Context, item *models.InvoiceItem) error
	Items(ctx context.Context, invoiceID uint) ([]models.InvoiceItem, error)
	UpdateTotal(ctx context.Context, id uint, total int64) error
	UpdateStatus(ctx context.Context, id uint, status models.InvoiceStatus) error
	SumItems(ctx context.Context, invoiceID uint) (int64, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
}

type invoiceRepository struct {
	*gormRepository[models.Invoice]
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{newGormRepository[models.Invoice](db, apperr.ErrInvoiceNotFound, "date desc, id desc")}
}

func (r *invoiceRepository) GetWithItems(ctx context.Context, id uint) (*models.Invoice, error) {
	q := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("invoice_items.id asc")
	})
	return r.first(q, "id = ?", id)
}

func (r *invoiceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Order("date asc, id asc").
		Find(&invoices).Error
	return invoices, apperr.FromDB(err, nil)
}

func (r *invoiceRepository) CreateItem(ctx context.Context, item *models.InvoiceItem) error {
	if item.Quantity <= 0 {
		return apperr.Invalid("quantity", "must be positive")
	}
	if item.TotalPrice != item.LineTotal() {
		return apperr.Invalid("total_price", "must equal quantity times unit price")
	}
	return apperr.FromDB(r.db.WithContext(ctx).Create(item).Error, nil)
}

func (r *invoiceRepository) Items(ctx context.Context, invoiceID uint) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("id asc").Find(&items).Error
	return items, apperr.FromDB(err, nil)
}

func (r *invoiceRepository) UpdateTotal(ctx context.Context, id uint, total int64) error {
	if total < 0 {
		return apperr.Invalid("total_amount", "must not be negative")
	}
	return r.updateColumn(ctx, id, "total_amount", total)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uint, status models.InvoiceStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *invoiceRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return apperr.FromDB(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) SumItems(ctx context.Context, invoiceID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceItem{}).
		Where("invoice_id = ?", invoiceID).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	return total, apperr.FromDB(err, nil)
}

func (r *invoiceRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, apperr.FromDB(err, nil)
}

// Delete removes the invoice and its items. Stock is left unchanged.
func (r *invoiceRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Invoice{}, id)
		deleted = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, apperr.FromDB(err, nil)
	}
	return deleted, nil
}
