package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/repository"
	"github.com/diewo77/go-pos/validation"
	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := repository.NewCategoryRepository(s.db).Create(ctx, c); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	v := validation.Violations{}
	validation.Required("name", name, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	repo := repository.NewCategoryRepository(s.db)
	c, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrCategoryNotFound
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	if err := repo.Update(ctx, c); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes the category and leaves its products uncategorised.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		if err := repos.Categories.DetachProducts(ctx, id); err != nil {
			return err
		}
		deleted, err := repos.Categories.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.ErrCategoryNotFound
		}
		return nil
	})
	if err == nil {
		logger.Info("category %d deleted", id)
	}
	return err
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return repository.NewCategoryRepository(s.db).Get(ctx, id)
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return repository.NewCategoryRepository(s.db).List(ctx)
}

// CustomerInput holds the editable fields of a customer.
type CustomerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (in *CustomerInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			v["email"] = "invalid_format"
		}
	}
	return v.Err()
}

type CustomerService struct {
	db *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := &models.Customer{Name: in.Name, Phone: in.Phone, Email: in.Email}
	if err := repository.NewCustomerRepository(s.db).Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	repo := repository.NewCustomerRepository(s.db)
	c, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrCustomerNotFound
	}
	c.Name, c.Phone, c.Email = in.Name, in.Phone, in.Email
	if err := repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCustomer removes a customer no invoice refers to.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uint) error {
	return repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		n, err := repos.Invoices.CountByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrCustomerInUse
		}
		deleted, err := repos.Customers.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.ErrCustomerNotFound
		}
		return nil
	})
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return repository.NewCustomerRepository(s.db).Get(ctx, id)
}

func (s *CustomerService) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	return repository.NewCustomerRepository(s.db).GetByName(ctx, strings.TrimSpace(name))
}

func (s *CustomerService) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return repository.NewCustomerRepository(s.db).GetByPhone(ctx, strings.TrimSpace(phone))
}

func (s *CustomerService) ListCustomers(ctx context.Context, page, perPage int) (repository.Page[models.Customer], error) {
	return repository.NewCustomerRepository(s.db).Paginate(ctx, page, perPage)
}
