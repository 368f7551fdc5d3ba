package repository

import (
	"context"
	"strings"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockNote describes why a quantity adjustment happened. It is stored on
// the StockMovement written alongside the adjustment.
type StockNote struct {
	Reason    string
	InvoiceID *uint
	BatchID   string
}

// ProductRepository is the product ledger.
type ProductRepository interface {
	Repository[models.Product]
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	LowStock(ctx context.Context, threshold int64) ([]models.Product, error)
	CountLowStock(ctx context.Context, threshold int64) (int64, error)
	// AdjustQuantity is the only path that changes Quantity. A decrease
	// never takes the quantity below zero.
	AdjustQuantity(ctx context.Context, id uint, delta int64, dir models.StockDirection, note StockNote) (*models.Product, error)
	UpdatePrice(ctx context.Context, id uint, price int64) (*models.Product, error)
	// UpdateDetails writes name and category only.
	UpdateDetails(ctx context.Context, id uint, name string, categoryID *uint) (*models.Product, error)
	IsReferenced(ctx context.Context, id uint) (bool, error)
}

type productRepository struct {
	*gormRepository[models.Product]
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{newGormRepository[models.Product](db, apperr.ErrProductNotFound, "name asc, id asc")}
}

func (r *productRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return r.first(r.db.WithContext(ctx), "barcode = ?", barcode)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for use with ESCAPE '\'.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

func (r *productRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	like := likePattern(query)
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(barcode) LIKE ? ESCAPE '\'`, like, like).
		Order(r.order).
		Find(&products).Error
	return products, apperr.FromDB(err, nil)
}

func (r *productRepository) LowStock(ctx context.Context, threshold int64) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity asc, name asc").
		Find(&products).Error
	return products, apperr.FromDB(err, nil)
}

func (r *productRepository) CountLowStock(ctx context.Context, threshold int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("quantity <= ?", threshold).Count(&n).Error
	return n, apperr.FromDB(err, nil)
}

func (r *productRepository) AdjustQuantity(ctx context.Context, id uint, delta int64, dir models.StockDirection, note StockNote) (*models.Product, error) {
	if delta <= 0 {
		return nil, apperr.Invalid("delta", "must be positive")
	}
	if !dir.Valid() {
		return nil, apperr.Invalid("direction", "must be increase or decrease")
	}
	if note.Reason == "" {
		note.Reason = models.ReasonManual
	}

	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock where the dialect supports it; sqlite drops the clause.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return apperr.FromDB(err, apperr.ErrProductNotFound)
		}
		before := product.Quantity

		q := tx.Model(&models.Product{}).Where("id = ?", id)
		var res *gorm.DB
		if dir == models.StockDecrease {
			res = q.Where("quantity >= ?", delta).Update("quantity", gorm.Expr("quantity - ?", delta))
		} else {
			res = q.Update("quantity", gorm.Expr("quantity + ?", delta))
		}
		if res.Error != nil {
			return apperr.FromDB(res.Error, nil)
		}
		if res.RowsAffected == 0 {
			if dir == models.StockDecrease {
				return &apperr.InsufficientStockError{ProductID: id, Available: before, Requested: delta}
			}
			return apperr.ErrProductNotFound
		}

		if err := tx.First(&product, id).Error; err != nil {
			return apperr.FromDB(err, apperr.ErrProductNotFound)
		}
		movement := models.StockMovement{
			ProductID: id,
			Direction: dir,
			Delta:     delta,
			Before:    before,
			After:     product.Quantity,
			Reason:    note.Reason,
			InvoiceID: note.InvoiceID,
			BatchID:   note.BatchID,
		}
		return apperr.FromDB(tx.Create(&movement).Error, nil)
	})
	if err != nil {
		return nil, apperr.FromDB(err, nil)
	}
	return &product, nil
}

func (r *productRepository) UpdatePrice(ctx context.Context, id uint, price int64) (*models.Product, error) {
	if price <= 0 {
		return nil, apperr.Invalid("price", "must be positive")
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("price", price)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrProductNotFound
	}
	product, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) UpdateDetails(ctx context.Context, id uint, name string, categoryID *uint) (*models.Product, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Select("name", "category_id", "updated_at").
		Updates(map[string]any{"name": name, "category_id": categoryID})
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrProductNotFound
	}
	product, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) IsReferenced(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceItem{}).Where("product_id = ?", id).Count(&n).Error
	return n > 0, apperr.FromDB(err, nil)
}
