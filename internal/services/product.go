package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/events"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/repository"
	"github.com/diewo77/go-pos/validation"
	"gorm.io/gorm"
)

// ProductInput is the editable part of a product at creation time.
type ProductInput struct {
	Name       string `json:"name"`
	Barcode    string `json:"barcode"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	CategoryID *uint  `json:"category_id,omitempty"`
}

func (in ProductInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("barcode", in.Barcode, v)
	validation.PositiveInt("price", in.Price, v)
	validation.NonNegativeInt("quantity", in.Quantity, v)
	return v.Err()
}

type ProductService struct {
	db        *gorm.DB
	bus       events.Publisher
	threshold int64
}

// NewProductService returns a service whose LowStock uses threshold when
// the caller passes a non-positive one.
func NewProductService(db *gorm.DB, bus events.Publisher, threshold int64) *ProductService {
	if bus == nil {
		bus = events.Nop{}
	}
	return &ProductService{db: db, bus: bus, threshold: threshold}
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:       in.Name,
		Barcode:    in.Barcode,
		Price:      in.Price,
		Quantity:   in.Quantity,
		CategoryID: in.CategoryID,
	}
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		existing, err := repos.Products.GetByBarcode(ctx, in.Barcode)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrDuplicateBarcode
		}
		if err := checkCategory(ctx, repos.Categories, in.CategoryID); err != nil {
			return err
		}
		if err := repos.Products.Create(ctx, p); err != nil {
			if apperr.IsConflict(err) {
				return apperr.ErrDuplicateBarcode
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("product %d created (%s)", p.ID, p.Barcode)
	s.bus.Publish(events.ProductChanged{ProductID: p.ID})
	return p, nil
}

func checkCategory(ctx context.Context, categories repository.CategoryRepository, id *uint) error {
	if id == nil {
		return nil
	}
	c, err := categories.Get(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.ErrCategoryNotFound
	}
	return nil
}

// UpdateProduct changes name and category. Price and quantity have their own
// operations and the barcode is immutable.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, name string, categoryID *uint) (*models.Product, error) {
	name = strings.TrimSpace(name)
	v := validation.Violations{}
	validation.Required("name", name, v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var out *models.Product
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		p, err := repos.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.ErrProductNotFound
		}
		if err := checkCategory(ctx, repos.Categories, categoryID); err != nil {
			return err
		}
		out, err = repos.Products.UpdateDetails(ctx, id, name, categoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.ProductChanged{ProductID: id})
	return out, nil
}

// DeleteProduct removes a product that no invoice item references.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		used, err := repos.Products.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.ErrProductInUse
		}
		deleted, err := repos.Products.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("product %d deleted", id)
	s.bus.Publish(events.ProductChanged{ProductID: id, Deleted: true})
	return nil
}

// GetProduct returns nil when the product does not exist.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return repository.NewProductRepository(s.db).Get(ctx, id)
}

func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return repository.NewProductRepository(s.db).GetByBarcode(ctx, strings.TrimSpace(barcode))
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return repository.NewProductRepository(s.db).List(ctx)
}

func (s *ProductService) PaginateProducts(ctx context.Context, page, perPage int) (repository.Page[models.Product], error) {
	return repository.NewProductRepository(s.db).Paginate(ctx, page, perPage)
}

// SearchProducts matches query against name and barcode, case-insensitively.
// An empty query lists everything.
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListProducts(ctx)
	}
	return repository.NewProductRepository(s.db).Search(ctx, query)
}

// LowStock lists products at or below threshold, or the configured default
// threshold when threshold is not positive.
func (s *ProductService) LowStock(ctx context.Context, threshold int64) ([]models.Product, error) {
	return repository.NewProductRepository(s.db).LowStock(ctx, s.Threshold(threshold))
}

// Threshold resolves the low-stock threshold for a request.
func (s *ProductService) Threshold(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	return s.threshold
}

// AdjustQuantity applies a manual stock correction.
func (s *ProductService) AdjustQuantity(ctx context.Context, id uint, delta int64, dir models.StockDirection) (*models.Product, error) {
	p, err := repository.NewProductRepository(s.db).AdjustQuantity(ctx, id, delta, dir, repository.StockNote{Reason: models.ReasonManual})
	if err != nil {
		return nil, err
	}
	signed := dir.Signed(delta)
	logger.Info("product %d stock adjusted by %d to %d", id, signed, p.Quantity)
	s.bus.Publish(events.StockChanged{ProductID: id, Before: p.Quantity - signed, After: p.Quantity, Reason: models.ReasonManual})
	return p, nil
}

func (s *ProductService) UpdatePrice(ctx context.Context, id uint, price int64) (*models.Product, error) {
	p, err := repository.NewProductRepository(s.db).UpdatePrice(ctx, id, price)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.ProductChanged{ProductID: id})
	return p, nil
}

// StockHistory lists the stock movements of a product, oldest first.
func (s *ProductService) StockHistory(ctx context.Context, id uint) ([]models.StockMovement, error) {
	return repository.NewStockMovementRepository(s.db).ListByProduct(ctx, id)
}
