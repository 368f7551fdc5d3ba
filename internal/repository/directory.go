package repository

import (
	"context"
	"time"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Repository[models.Category]
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// DetachProducts clears category_id on every product of the category.
	DetachProducts(ctx context.Context, categoryID uint) error
}

type categoryRepository struct {
	*gormRepository[models.Category]
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{newGormRepository[models.Category](db, apperr.ErrCategoryNotFound, "name asc")}
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return r.first(r.db.WithContext(ctx), "name = ?", name)
}

func (r *categoryRepository) DetachProducts(ctx context.Context, categoryID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil).Error
	return apperr.FromDB(err, nil)
}

type CustomerRepository interface {
	Repository[models.Customer]
	GetByName(ctx context.Context, name string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
}

type customerRepository struct {
	*gormRepository[models.Customer]
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{newGormRepository[models.Customer](db, apperr.ErrCustomerNotFound, "name asc, id asc")}
}

func (r *customerRepository) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	return r.first(r.db.WithContext(ctx), "name = ?", name)
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return r.first(r.db.WithContext(ctx), "phone = ?", phone)
}

type UserRepository interface {
	Repository[models.User]
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepository struct {
	*gormRepository[models.User]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{newGormRepository[models.User](db, apperr.ErrUserNotFound, "id asc")}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "username = ?", username)
}

// StockMovementRepository reads the stock audit trail. Movements are written
// by ProductRepository.AdjustQuantity only.
type StockMovementRepository interface {
	ListByProduct(ctx context.Context, productID uint) ([]models.StockMovement, error)
	ListByInvoice(ctx context.Context, invoiceID uint) ([]models.StockMovement, error)
	ListSince(ctx context.Context, since time.Time) ([]models.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uint) ([]models.StockMovement, error) {
	return r.list(ctx, "product_id = ?", productID)
}

func (r *stockMovementRepository) ListByInvoice(ctx context.Context, invoiceID uint) ([]models.StockMovement, error) {
	return r.list(ctx, "invoice_id = ?", invoiceID)
}

func (r *stockMovementRepository) ListSince(ctx context.Context, since time.Time) ([]models.StockMovement, error) {
	return r.list(ctx, "created_at >= ?", since.UTC())
}

func (r *stockMovementRepository) list(ctx context.Context, cond string, args ...any) ([]models.StockMovement, error) {
	var out []models.StockMovement
	err := r.db.WithContext(ctx).Where(cond, args...).Order("id asc").Find(&out).Error
	return out, apperr.FromDB(err, nil)
}
